package userpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	UserService_CreateCustomer_FullMethodName     = "/userpb.UserService/CreateCustomer"
	UserService_GetCustomer_FullMethodName        = "/userpb.UserService/GetCustomer"
	UserService_SetDiscountAvailed_FullMethodName = "/userpb.UserService/SetDiscountAvailed"
	UserService_DeleteCustomer_FullMethodName     = "/userpb.UserService/DeleteCustomer"
)

type UserServiceClient interface {
	CreateCustomer(ctx context.Context, in *CreateCustomerRequest, opts ...grpc.CallOption) (*CustomerResponse, error)
	GetCustomer(ctx context.Context, in *GetCustomerRequest, opts ...grpc.CallOption) (*CustomerResponse, error)
	SetDiscountAvailed(ctx context.Context, in *SetDiscountAvailedRequest, opts ...grpc.CallOption) (*CustomerResponse, error)
	DeleteCustomer(ctx context.Context, in *DeleteCustomerRequest, opts ...grpc.CallOption) (*DeleteCustomerResponse, error)
}

type userServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewUserServiceClient(cc grpc.ClientConnInterface) UserServiceClient {
	return &userServiceClient{cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *userServiceClient) CreateCustomer(ctx context.Context, in *CreateCustomerRequest, opts ...grpc.CallOption) (*CustomerResponse, error) {
	out := new(CustomerResponse)
	if err := c.cc.Invoke(ctx, UserService_CreateCustomer_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *userServiceClient) GetCustomer(ctx context.Context, in *GetCustomerRequest, opts ...grpc.CallOption) (*CustomerResponse, error) {
	out := new(CustomerResponse)
	if err := c.cc.Invoke(ctx, UserService_GetCustomer_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *userServiceClient) SetDiscountAvailed(ctx context.Context, in *SetDiscountAvailedRequest, opts ...grpc.CallOption) (*CustomerResponse, error) {
	out := new(CustomerResponse)
	if err := c.cc.Invoke(ctx, UserService_SetDiscountAvailed_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *userServiceClient) DeleteCustomer(ctx context.Context, in *DeleteCustomerRequest, opts ...grpc.CallOption) (*DeleteCustomerResponse, error) {
	out := new(DeleteCustomerResponse)
	if err := c.cc.Invoke(ctx, UserService_DeleteCustomer_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

type UserServiceServer interface {
	CreateCustomer(context.Context, *CreateCustomerRequest) (*CustomerResponse, error)
	GetCustomer(context.Context, *GetCustomerRequest) (*CustomerResponse, error)
	SetDiscountAvailed(context.Context, *SetDiscountAvailedRequest) (*CustomerResponse, error)
	DeleteCustomer(context.Context, *DeleteCustomerRequest) (*DeleteCustomerResponse, error)
}

// UnimplementedUserServiceServer can be embedded to have forward compatible implementations.
type UnimplementedUserServiceServer struct{}

func (UnimplementedUserServiceServer) CreateCustomer(context.Context, *CreateCustomerRequest) (*CustomerResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateCustomer not implemented")
}
func (UnimplementedUserServiceServer) GetCustomer(context.Context, *GetCustomerRequest) (*CustomerResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCustomer not implemented")
}
func (UnimplementedUserServiceServer) SetDiscountAvailed(context.Context, *SetDiscountAvailedRequest) (*CustomerResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetDiscountAvailed not implemented")
}
func (UnimplementedUserServiceServer) DeleteCustomer(context.Context, *DeleteCustomerRequest) (*DeleteCustomerResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteCustomer not implemented")
}

func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&UserService_ServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](method string, call func(UserServiceServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(UserServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(UserServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var UserService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "userpb.UserService",
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateCustomer",
			Handler: unaryHandler(UserService_CreateCustomer_FullMethodName,
				func(s UserServiceServer, ctx context.Context, in *CreateCustomerRequest) (*CustomerResponse, error) {
					return s.CreateCustomer(ctx, in)
				}),
		},
		{
			MethodName: "GetCustomer",
			Handler: unaryHandler(UserService_GetCustomer_FullMethodName,
				func(s UserServiceServer, ctx context.Context, in *GetCustomerRequest) (*CustomerResponse, error) {
					return s.GetCustomer(ctx, in)
				}),
		},
		{
			MethodName: "SetDiscountAvailed",
			Handler: unaryHandler(UserService_SetDiscountAvailed_FullMethodName,
				func(s UserServiceServer, ctx context.Context, in *SetDiscountAvailedRequest) (*CustomerResponse, error) {
					return s.SetDiscountAvailed(ctx, in)
				}),
		},
		{
			MethodName: "DeleteCustomer",
			Handler: unaryHandler(UserService_DeleteCustomer_FullMethodName,
				func(s UserServiceServer, ctx context.Context, in *DeleteCustomerRequest) (*DeleteCustomerResponse, error) {
					return s.DeleteCustomer(ctx, in)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "userpb/user.go",
}
