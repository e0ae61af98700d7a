package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName 對外的 gRPC 服務名稱，訊息一律為 google.protobuf.Struct
const ServiceName = "ledger.v1.LedgerService"

const (
	MethodRecordTransaction = "/" + ServiceName + "/RecordTransaction"
	MethodListTransactions  = "/" + ServiceName + "/ListTransactions"
	MethodGetBalance        = "/" + ServiceName + "/GetBalance"
)

// LedgerServiceServer 伺服端介面
type LedgerServiceServer interface {
	RecordTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterLedgerServiceServer 註冊服務
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

func unaryHandler(method string, call func(srv LedgerServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LedgerServiceDesc 手寫的 ServiceDesc
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RecordTransaction",
			Handler: unaryHandler(MethodRecordTransaction, func(srv LedgerServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.RecordTransaction(ctx, req)
			}),
		},
		{
			MethodName: "ListTransactions",
			Handler: unaryHandler(MethodListTransactions, func(srv LedgerServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.ListTransactions(ctx, req)
			}),
		},
		{
			MethodName: "GetBalance",
			Handler: unaryHandler(MethodGetBalance, func(srv LedgerServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.GetBalance(ctx, req)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/ledger.proto",
}

// LedgerClient 客戶端
type LedgerClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerClient(cc grpc.ClientConnInterface) *LedgerClient {
	return &LedgerClient{cc: cc}
}

func (c *LedgerClient) RecordTransaction(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodRecordTransaction, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LedgerClient) ListTransactions(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodListTransactions, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LedgerClient) GetBalance(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetBalance, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
