package server

import (
	"context"
	"time"

	api "bank/api/v1"
)

// how long ConsumeStream waits before looking for new records at the tail
var pollInterval = 100 * time.Millisecond

var _ api.JournalServer = (*journalServer)(nil)

type journalServer struct {
	*Config
}

func (s *journalServer) Consume(ctx context.Context, req *api.ConsumeRequest) (*api.ConsumeResponse, error) {
	record, err := s.Journal.Read(req.Offset)
	if err != nil {
		return nil, err
	}
	return &api.ConsumeResponse{Record: record}, nil
}

// ConsumeStream sends every record from req.Offset on, then waits for new
// ones until the client goes away
func (s *journalServer) ConsumeStream(req *api.ConsumeRequest, stream api.Journal_ConsumeStreamServer) error {
	ctx := stream.Context()
	offset := req.Offset
	for {
		res, err := s.Consume(ctx, &api.ConsumeRequest{Offset: offset})
		switch err.(type) {
		case nil:
		case api.ErrOffsetOutOfRange:
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollInterval):
			}
			continue
		default:
			return err
		}

		if err := stream.Send(res); err != nil {
			return err
		}
		offset++
	}
}
