package server

import (
	"context"
	"fmt"
	"log/slog"
	"roast-battle/codec"
	"roast-battle/errors"
	"roast-battle/services"
	"roast-battle/sink"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName        = "roastbattle.BattleStream"
	SubscribeMethod    = "/" + ServiceName + "/Subscribe"
	CastVoteMethod     = "/" + ServiceName + "/CastVote"
	UpdateBattleMethod = "/" + ServiceName + "/UpdateBattle"
)

// BattleStreamServer is served with well-known types only, so no generated code is needed.
type BattleStreamServer interface {
	Subscribe(req *wrapperspb.StringValue, stream grpc.ServerStreamingServer[structpb.Struct]) error
	CastVote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateBattle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// CastVoteBody is the JSON shape of a CastVote request.
type CastVoteBody struct {
	BattleID string `json:"battleId"`
	services.CastVoteRequest
}

// UpdateBattleBody is the JSON shape of an UpdateBattle request.
type UpdateBattleBody struct {
	BattleID string `json:"battleId"`
	services.UpdateBattleRequest
}

type BattleServer struct {
	log        *slog.Logger
	battles    services.IBattleService
	bufferSize int
	now        func() time.Time
}

func NewBattleServer(log *slog.Logger, battles services.IBattleService, bufferSize int) *BattleServer {
	return &BattleServer{log: log, battles: battles, bufferSize: bufferSize, now: time.Now}
}

// Register exposes the server on the gRPC registrar.
func (s *BattleServer) Register(registrar grpc.ServiceRegistrar) {
	registrar.RegisterService(&BattleStreamServiceDesc, s)
}

// Subscribe blocks until the client disconnects or falls too far behind.
// The first message is always the initial snapshot of the battle.
func (s *BattleServer) Subscribe(req *wrapperspb.StringValue, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	events := sink.NewStreamSink(s.bufferSize)
	sub, err := s.battles.Subscribe(stream.Context(), req.GetValue(), events)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	defer s.battles.Unsubscribe(sub)

	for {
		select {
		case <-stream.Context().Done():
			s.log.Debug("Stream client disconnected", "battle_id", sub.BattleID, "subscriber_id", sub.ID)
			return nil
		case <-events.Done():
			return status.Error(codes.ResourceExhausted, "subscriber dropped, too slow")
		case e := <-events.Events():
			msg, err := codec.ToStruct(e)
			if err != nil {
				s.log.Error("Failed to encode event", "type", e.Type, "error", err)
				continue
			}
			if err := stream.Send(msg); err != nil {
				s.log.Error("Failed to push event to stream",
					"battle_id", sub.BattleID,
					"subscriber_id", sub.ID,
					"error", err)
				return err
			}
			sub.Touch(s.now())
		}
	}
}

func (s *BattleServer) CastVote(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body CastVoteBody
	if err := codec.FromStruct(req, &body); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	result, err := s.battles.CastVote(body.BattleID, body.CastVoteRequest)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return codec.ToStruct(result)
}

// UpdateBattle is a host method, the interceptor checks the token before it is reached.
func (s *BattleServer) UpdateBattle(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body UpdateBattleBody
	if err := codec.FromStruct(req, &body); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	battle, err := s.battles.UpdateBattle(body.BattleID, body.UpdateBattleRequest)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return codec.ToStruct(battle)
}

var BattleStreamServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BattleStreamServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CastVote", Handler: unaryHandler(CastVoteMethod, BattleStreamServer.CastVote)},
		{MethodName: "UpdateBattle", Handler: unaryHandler(UpdateBattleMethod, BattleStreamServer.UpdateBattle)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
	Metadata: "roastbattle/battle_stream.proto",
}

type unaryMethod func(BattleStreamServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, method unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		server, ok := srv.(BattleStreamServer)
		if !ok {
			return nil, status.Error(codes.Internal, fmt.Sprintf("unexpected server %T", srv))
		}
		if interceptor == nil {
			return method(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(server, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(BattleStreamServer).Subscribe(in, &grpc.GenericServerStream[wrapperspb.StringValue, structpb.Struct]{ServerStream: stream})
}
