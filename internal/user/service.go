package user

import (
	"context"
	"errors"
	"log"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/MikeMC777/checkout-saga/internal/userpb"
)

type Service struct {
	pb.UnimplementedUserServiceServer
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func toPB(c *Customer) *pb.Customer {
	return &pb.Customer{Id: c.ID, Name: c.Name, Email: c.Email, DiscountAvailed: c.DiscountAvailed}
}

// CreateCustomer
func (s *Service) CreateCustomer(ctx context.Context, in *pb.CreateCustomerRequest) (*pb.CustomerResponse, error) {
	if in.Id <= 0 || strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return nil, status.Error(codes.InvalidArgument, "id, name and email are required")
	}
	c := &Customer{ID: in.Id, Name: in.Name, Email: in.Email}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrAlreadyExist) {
			return nil, status.Error(codes.AlreadyExists, "customer exists (id/email)")
		}
		return nil, status.Errorf(codes.Internal, "create error: %v", err)
	}
	return &pb.CustomerResponse{Customer: toPB(c)}, nil
}

// GetCustomer
func (s *Service) GetCustomer(ctx context.Context, in *pb.GetCustomerRequest) (*pb.CustomerResponse, error) {
	if in.GetId() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	c, err := s.repo.GetByID(ctx, in.GetId())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, status.Error(codes.NotFound, "customer not found")
		}
		return nil, status.Errorf(codes.Internal, "get error: %v", err)
	}
	return &pb.CustomerResponse{Customer: toPB(c)}, nil
}

// SetDiscountAvailed is idempotent: setting the flag to its current value succeeds.
func (s *Service) SetDiscountAvailed(ctx context.Context, in *pb.SetDiscountAvailedRequest) (*pb.CustomerResponse, error) {
	if in.Id <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	if err := s.repo.SetDiscountAvailed(ctx, in.Id, in.Availed); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, status.Error(codes.NotFound, "customer not found")
		}
		return nil, status.Errorf(codes.Internal, "update error: %v", err)
	}
	log.Printf("[user] id=%d discount_availed=%t", in.Id, in.Availed)

	c, err := s.repo.GetByID(ctx, in.Id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, status.Error(codes.NotFound, "customer not found after update")
		}
		return nil, status.Errorf(codes.Internal, "refetch error: %v", err)
	}
	return &pb.CustomerResponse{Customer: toPB(c)}, nil
}

// DeleteCustomer
func (s *Service) DeleteCustomer(ctx context.Context, in *pb.DeleteCustomerRequest) (*pb.DeleteCustomerResponse, error) {
	if in.Id <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	ok, err := s.repo.Delete(ctx, in.Id)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "delete error: %v", err)
	}
	if !ok {
		return nil, status.Error(codes.NotFound, "customer not found")
	}
	return &pb.DeleteCustomerResponse{Deleted: true}, nil
}
