package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nilantra/furniture-api/internal/dto"
	"github.com/nilantra/furniture-api/internal/model"
	"github.com/nilantra/furniture-api/internal/repository"
)

const guestReviewName = "Anonymous"

type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, productRepo: productRepo}
}

// Create accepts reviews from signed-in users and guests. A nil author is a guest.
func (s *ReviewService) Create(ctx context.Context, author *model.Principal, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, fmt.Errorf("%w: comment is required", ErrValidation)
	}

	review := &model.Review{
		Rating:  req.Rating,
		Comment: comment,
		Images:  []string(req.Images),
	}
	if req.ProductID != nil && *req.ProductID != uuid.Nil {
		product, err := s.productRepo.GetByID(ctx, *req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return nil, notFound("product")
		}
		id := product.ID
		review.ProductID = &id
	}

	if author != nil {
		id := author.ID
		review.UserID = &id
		review.Name = author.Name
	} else {
		review.Name = strings.TrimSpace(req.GuestName)
	}
	if review.Name == "" {
		review.Name = guestReviewName
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	resp := dto.NewReviewResponse(review)
	return &resp, nil
}

func (s *ReviewService) load(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return nil, notFound("review")
	}
	return review, nil
}

func (s *ReviewService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ReviewResponse, error) {
	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewReviewResponse(review)
	return &resp, nil
}

func (s *ReviewService) List(ctx context.Context) ([]dto.ReviewResponse, error) {
	reviews, err := s.reviewRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return dto.NewReviewListResponse(reviews), nil
}

func (s *ReviewService) ListGeneral(ctx context.Context) ([]dto.ReviewResponse, error) {
	reviews, err := s.reviewRepo.ListGeneral(ctx)
	if err != nil {
		return nil, fmt.Errorf("list general reviews: %w", err)
	}
	return dto.NewReviewListResponse(reviews), nil
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]dto.ReviewResponse, error) {
	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}
	return dto.NewReviewListResponse(reviews), nil
}

// ownsReview is false for guest reviews, which only admins may touch.
func ownsReview(p model.Principal, review *model.Review) bool {
	if p.IsAdmin() {
		return true
	}
	return review.UserID != nil && *review.UserID == p.ID
}

// Update lets the author edit content and admins edit anything, including
// the reply.
func (s *ReviewService) Update(ctx context.Context, p model.Principal, id uuid.UUID, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownsReview(p, review) {
		return nil, fmt.Errorf("%w: not the author of this review", ErrForbidden)
	}

	patch := req.ToPatch()
	if patch.Reply != nil && !p.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can reply to reviews", ErrForbidden)
	}
	if patch.Rating != nil {
		if *patch.Rating < 1 || *patch.Rating > 5 {
			return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
		}
		review.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		comment := strings.TrimSpace(*patch.Comment)
		if comment == "" {
			return nil, fmt.Errorf("%w: comment cannot be empty", ErrValidation)
		}
		review.Comment = comment
	}
	if patch.Images != nil {
		review.Images = *patch.Images
	}
	if patch.Reply != nil {
		review.Reply = strings.TrimSpace(*patch.Reply)
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, storeErr("update review", err)
	}
	resp := dto.NewReviewResponse(review)
	return &resp, nil
}

func (s *ReviewService) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	review, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !ownsReview(p, review) {
		return fmt.Errorf("%w: not the author of this review", ErrForbidden)
	}
	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return storeErr("delete review", err)
	}
	return nil
}
