// Package grpc 店铺只读 gRPC 接口；消息使用 google.protobuf.Struct，无需生成代码
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "storefront.v1.Storefront"

// StorefrontServer 服务端接口
type StorefrontServer interface {
	GetProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListProducts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	RecommendForQuiz(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type call func(srv StorefrontServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unary(method string, fn call) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(StorefrontServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(srv.(StorefrontServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc storefront.v1.Storefront 服务描述
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StorefrontServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetProduct", StorefrontServer.GetProduct),
		unary("ListProducts", StorefrontServer.ListProducts),
		unary("RecommendForQuiz", StorefrontServer.RecommendForQuiz),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/storefront.proto",
}

// RegisterStorefrontServer 注册服务
func RegisterStorefrontServer(s grpc.ServiceRegistrar, srv StorefrontServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// StorefrontClient 客户端
type StorefrontClient struct {
	cc grpc.ClientConnInterface
}

// NewStorefrontClient 创建客户端
func NewStorefrontClient(cc grpc.ClientConnInterface) *StorefrontClient {
	return &StorefrontClient{cc: cc}
}

func (c *StorefrontClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct 按 slug 查询商品
func (c *StorefrontClient) GetProduct(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetProduct", in, opts...)
}

// ListProducts 商品列表
func (c *StorefrontClient) ListProducts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListProducts", in, opts...)
}

// RecommendForQuiz 按测验答案推荐
func (c *StorefrontClient) RecommendForQuiz(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "RecommendForQuiz", in, opts...)
}
