package grpc

import (
	"context"
	"errors"
	"fmt"

	"users-service/internal/usecase/user"
	pkgerrors "users-service/pkg/errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "users.v1.UsersService"

// Full method names, as seen by interceptors.
const (
	CreateUsersMethod = "/" + ServiceName + "/CreateUsers"
	ListUsersMethod   = "/" + ServiceName + "/ListUsers"
	DeleteUserMethod  = "/" + ServiceName + "/DeleteUser"
)

// UsersServiceServer is the server API for the users service.
// Users travel as protobuf Structs with the fields id, name, surname, email.
type UsersServiceServer interface {
	CreateUsers(ctx context.Context, in *structpb.ListValue) (*structpb.Struct, error)
	ListUsers(ctx context.Context, in *emptypb.Empty) (*structpb.ListValue, error)
	DeleteUser(ctx context.Context, in *wrapperspb.Int64Value) (*structpb.Struct, error)
}

// RegisterUsersServiceServer registers srv on s.
func RegisterUsersServiceServer(s grpc.ServiceRegistrar, srv UsersServiceServer) {
	s.RegisterService(&UsersServiceDesc, srv)
}

// UsersServiceDesc describes the users service for grpc.Server.
var UsersServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UsersServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateUsers", Handler: createUsersHandler},
		{MethodName: "ListUsers", Handler: listUsersHandler},
		{MethodName: "DeleteUser", Handler: deleteUserHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "users/v1/users.proto",
}

func createUsersHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.ListValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UsersServiceServer).CreateUsers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CreateUsersMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UsersServiceServer).CreateUsers(ctx, req.(*structpb.ListValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listUsersHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UsersServiceServer).ListUsers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListUsersMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UsersServiceServer).ListUsers(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func deleteUserHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UsersServiceServer).DeleteUser(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DeleteUserMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UsersServiceServer).DeleteUser(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

// UserServiceServer implements the gRPC users service on top of the usecase
type UserServiceServer struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserServiceServer creates a new gRPC user service server
func NewUserServiceServer(uc user.UserUsecase, log *zap.Logger) *UserServiceServer {
	return &UserServiceServer{uc: uc, log: log}
}

var _ UsersServiceServer = (*UserServiceServer)(nil)

// CreateUsers handles gRPC CreateUsers request
func (s *UserServiceServer) CreateUsers(ctx context.Context, req *structpb.ListValue) (*structpb.Struct, error) {
	ucReq := user.CreateUsersRequest{Users: make([]user.CreateUserInput, len(req.GetValues()))}
	for i, v := range req.GetValues() {
		obj := v.GetStructValue()
		if obj == nil {
			return nil, toStatus(pkgerrors.NewValidationError("Validation error",
				fmt.Sprintf("Users[%d] must be an object", i)))
		}
		ucReq.Users[i] = user.CreateUserInput{
			Name:    obj.GetFields()["name"].GetStringValue(),
			Surname: obj.GetFields()["surname"].GetStringValue(),
			Email:   obj.GetFields()["email"].GetStringValue(),
		}
	}

	resp, err := s.uc.CreateUsers(ctx, ucReq)
	if err != nil {
		s.log.Warn("gRPC CreateUsers failed", zap.Error(err))
		return nil, toStatus(err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"message": structpb.NewStringValue(resp.Message),
		"users":   structpb.NewListValue(usersToList(resp.Users)),
	}}, nil
}

// ListUsers handles gRPC ListUsers request
func (s *UserServiceServer) ListUsers(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	resp, err := s.uc.ListUsers(ctx)
	if err != nil {
		s.log.Error("gRPC ListUsers failed", zap.Error(err))
		return nil, toStatus(err)
	}
	return usersToList(resp.Users), nil
}

// DeleteUser handles gRPC DeleteUser request
func (s *UserServiceServer) DeleteUser(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	resp, err := s.uc.DeleteUser(ctx, user.DeleteUserRequest{ID: req.GetValue()})
	if err != nil {
		s.log.Warn("gRPC DeleteUser failed", zap.Error(err))
		return nil, toStatus(err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"message": structpb.NewStringValue(resp.Message),
	}}, nil
}

// toStatus keeps typed errors' own gRPC status and hides everything else.
func toStatus(err error) error {
	var s pkgerrors.GRPCStatuser
	if errors.As(err, &s) {
		return s.GRPCStatus().Err()
	}
	return status.Error(codes.Internal, "An internal error occurred")
}

func usersToList(users []user.User) *structpb.ListValue {
	values := make([]*structpb.Value, len(users))
	for i, u := range users {
		values[i] = structpb.NewStructValue(userToStruct(u))
	}
	return &structpb.ListValue{Values: values}
}

func userToStruct(u user.User) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":      structpb.NewNumberValue(float64(u.ID)),
		"name":    structpb.NewStringValue(u.Name),
		"surname": structpb.NewStringValue(u.Surname),
		"email":   structpb.NewStringValue(u.Email),
	}}
}
