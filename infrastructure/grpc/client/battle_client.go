package client

import (
	"context"
	"roast-battle/codec"
	"roast-battle/domain"
	"roast-battle/domain/event"
	"roast-battle/infrastructure/grpc/server"
	"roast-battle/services"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// BattleClient talks to the BattleStream service over an existing connection.
type BattleClient struct {
	conn grpc.ClientConnInterface
}

func NewBattleClient(conn grpc.ClientConnInterface) *BattleClient {
	return &BattleClient{conn: conn}
}

// EventStream yields the events of one subscription. Payloads come back as generic JSON values.
type EventStream struct {
	stream grpc.ServerStreamingClient[structpb.Struct]
}

func (s *EventStream) Recv() (event.Event, error) {
	msg, err := s.stream.Recv()
	if err != nil {
		return event.Event{}, err
	}
	var e event.Event
	err = codec.FromStruct(msg, &e)
	return e, err
}

// Subscribe opens a server stream on the battle. Canceling ctx closes it.
func (c *BattleClient) Subscribe(ctx context.Context, battleID string) (*EventStream, error) {
	desc := &server.BattleStreamServiceDesc.Streams[0]
	raw, err := c.conn.NewStream(ctx, desc, server.SubscribeMethod)
	if err != nil {
		return nil, err
	}
	stream := &grpc.GenericClientStream[wrapperspb.StringValue, structpb.Struct]{ClientStream: raw}
	if err := stream.SendMsg(wrapperspb.String(battleID)); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EventStream{stream: stream}, nil
}

func (c *BattleClient) CastVote(ctx context.Context, battleID string, req services.CastVoteRequest) (domain.VoteResult, error) {
	var result domain.VoteResult
	err := c.invoke(ctx, server.CastVoteMethod, server.CastVoteBody{BattleID: battleID, CastVoteRequest: req}, &result)
	return result, err
}

// UpdateBattle needs a host token when the server has host login enabled.
func (c *BattleClient) UpdateBattle(ctx context.Context, battleID, token string, req services.UpdateBattleRequest) (domain.Battle, error) {
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	var battle domain.Battle
	err := c.invoke(ctx, server.UpdateBattleMethod, server.UpdateBattleBody{BattleID: battleID, UpdateBattleRequest: req}, &battle)
	return battle, err
}

func (c *BattleClient) invoke(ctx context.Context, method string, body, out any) error {
	in, err := codec.ToStruct(body)
	if err != nil {
		return err
	}
	reply := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, in, reply); err != nil {
		return err
	}
	return codec.FromStruct(reply, out)
}
