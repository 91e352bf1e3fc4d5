package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/nilantra/furniture-api/internal/model"
)

type CreateReviewRequest struct {
	ProductID *uuid.UUID `json:"product"`
	Rating    int        `json:"rating" binding:"required,min=1,max=5"`
	Comment   string     `json:"comment" binding:"required"`
	Images    List       `json:"images"`
	GuestName string     `json:"guestName"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment"`
	Images  *List   `json:"images"`
	Reply   *string `json:"reply"`
}

func (r UpdateReviewRequest) ToPatch() model.ReviewPatch {
	p := model.ReviewPatch{Rating: r.Rating, Comment: r.Comment, Reply: r.Reply}
	if r.Images != nil {
		images := []string(*r.Images)
		p.Images = &images
	}
	return p
}

type ReviewResponse struct {
	ID        uuid.UUID  `json:"id"`
	ProductID *uuid.UUID `json:"product"`
	UserID    *uuid.UUID `json:"user"`
	Name      string     `json:"name"`
	Rating    int        `json:"rating"`
	Comment   string     `json:"comment"`
	Images    []string   `json:"images"`
	Reply     string     `json:"reply,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func NewReviewResponse(r *model.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Name:      r.Name,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Images:    orEmpty(r.Images),
		Reply:     r.Reply,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func NewReviewListResponse(reviews []model.Review) []ReviewResponse {
	out := make([]ReviewResponse, len(reviews))
	for i := range reviews {
		out[i] = NewReviewResponse(&reviews[i])
	}
	return out
}
