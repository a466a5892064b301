package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// UsersClient is a typed client for the users service.
type UsersClient struct {
	cc grpc.ClientConnInterface
}

// NewUsersClient creates a client over cc.
func NewUsersClient(cc grpc.ClientConnInterface) *UsersClient {
	return &UsersClient{cc: cc}
}

// CreateUsers calls UsersService.CreateUsers.
func (c *UsersClient) CreateUsers(ctx context.Context, in *structpb.ListValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CreateUsersMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUsers calls UsersService.ListUsers.
func (c *UsersClient) ListUsers(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ListUsersMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUser calls UsersService.DeleteUser.
func (c *UsersClient) DeleteUser(ctx context.Context, id int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DeleteUserMethod, wrapperspb.Int64(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
