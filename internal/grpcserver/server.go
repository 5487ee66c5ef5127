package grpcserver

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"shopscrape/internal/runs"
	"shopscrape/pkg/models"
)

type Server struct {
	Runs *runs.Repo
}

func NewServer(repo *runs.Repo) *Server {
	return &Server{Runs: repo}
}

func (s *Server) ListRuns(ctx context.Context, req *ListRunsRequest) (*ListRunsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	query := runs.ListQuery{
		Site:   strings.TrimSpace(req.Site),
		Status: strings.TrimSpace(req.Status),
		Limit:  int(req.Limit),
		Offset: int(req.Offset),
	}

	items, total, err := s.Runs.ListRuns(ctx, query)
	if err != nil {
		return nil, status.Error(codes.Internal, "list failed")
	}
	if items == nil {
		items = []models.Run{}
	}

	return &ListRunsResponse{
		Total:  int32(total),
		Limit:  req.Limit,
		Offset: req.Offset,
		Items:  items,
	}, nil
}

func (s *Server) GetRun(ctx context.Context, req *GetRunRequest) (*GetRunResponse, error) {
	if req == nil || strings.TrimSpace(req.ID) == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}

	run, err := s.Runs.GetRun(ctx, strings.TrimSpace(req.ID))
	if err != nil {
		return nil, toStatus(err, "get failed")
	}
	return &GetRunResponse{Run: run}, nil
}

func (s *Server) ListRecords(ctx context.Context, req *ListRecordsRequest) (*ListRecordsResponse, error) {
	if req == nil || strings.TrimSpace(req.RunID) == "" {
		return nil, status.Error(codes.InvalidArgument, "run_id required")
	}
	runID := strings.TrimSpace(req.RunID)

	if _, err := s.Runs.GetRun(ctx, runID); err != nil {
		return nil, toStatus(err, "get failed")
	}
	items, err := s.Runs.ListRecords(ctx, runID, int(req.Limit), int(req.Offset))
	if err != nil {
		return nil, status.Error(codes.Internal, "list records failed")
	}
	if items == nil {
		items = []models.Record{}
	}
	return &ListRecordsResponse{RunID: runID, Items: items}, nil
}

func toStatus(err error, msg string) error {
	if errors.Is(err, runs.ErrNotFound) {
		return status.Error(codes.NotFound, "not found")
	}
	return status.Error(codes.Internal, msg)
}
