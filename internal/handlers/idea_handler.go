package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"ideacentral/backend/internal/middleware"
	"ideacentral/backend/internal/models"
	"ideacentral/backend/internal/repository"
	"ideacentral/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// IdeaHandler serves the idea endpoints.
type IdeaHandler struct {
	ideas    *repository.IdeaRepository
	assigner *services.AssignmentService
	timeout  time.Duration
}

// NewIdeaHandler creates a new idea handler
func NewIdeaHandler(ideas *repository.IdeaRepository, assigner *services.AssignmentService, timeout time.Duration) *IdeaHandler {
	return &IdeaHandler{ideas: ideas, assigner: assigner, timeout: timeout}
}

// CreateIdeaPayload is the submission form. Any idea_id sent by the client is ignored.
type CreateIdeaPayload struct {
	Name               string   `json:"name" binding:"required"`
	Email              string   `json:"email" binding:"required,email"`
	IdeaTitle          string   `json:"ideaTitle" binding:"required"`
	IdeaCategory       []string `json:"ideaCategory"`
	IdeaDescription    string   `json:"ideaDescription" binding:"required"`
	ValueAdd           *string  `json:"valueAdd"`
	ValueAddWords      *string  `json:"valueAddWords"`
	ToolsTechnologies  []string `json:"toolsTechnologies"`
	Contributors       *string  `json:"contributors"`
	Complexity         *string  `json:"complexity"`
	PrimaryBeneficiary []string `json:"primaryBeneficiary"`
	ImplementIdea      *string  `json:"implementIdea"`
	GoogleLink         *string  `json:"googleLink"`
	Status             *string  `json:"status"`
	CommentName        *string  `json:"comment_name"`
	ReviewDate         *string  `json:"review_date"`
	Comments           *string  `json:"comments"`
	Grading            *string  `json:"grading"`
	Feedback           *string  `json:"feedback"`
}

func (p CreateIdeaPayload) toIdea() models.Idea {
	return models.Idea{
		Email:              p.Email,
		Name:               p.Name,
		IdeaTitle:          p.IdeaTitle,
		IdeaCategory:       p.IdeaCategory,
		IdeaDescription:    p.IdeaDescription,
		ValueAdd:           p.ValueAdd,
		ValueAddWords:      p.ValueAddWords,
		ToolsTechnologies:  p.ToolsTechnologies,
		Contributors:       p.Contributors,
		Complexity:         p.Complexity,
		PrimaryBeneficiary: p.PrimaryBeneficiary,
		ImplementIdea:      p.ImplementIdea,
		GoogleLink:         p.GoogleLink,
		Status:             p.Status,
		CommentName:        p.CommentName,
		ReviewDate:         p.ReviewDate,
		Comments:           p.Comments,
		Grading:            p.Grading,
		Feedback:           p.Feedback,
	}
}

// CreateIdea handles POST /ideas
func (h *IdeaHandler) CreateIdea(c *gin.Context) {
	var payload CreateIdeaPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	result, err := h.assigner.SubmitIdea(ctx, payload.toIdea())
	if err != nil {
		body := gin.H{"error": err.Error()}
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Printf("[IdeaHandler] Submission failed: %v", err)
			body["error"] = "Failed to submit idea"
		}
		// The idea may already be stored even though the workflow failed.
		if result != nil && result.IdeaID != "" {
			body["idea_id"] = result.IdeaID
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       fmt.Sprintf("Idea created successfully and randomly assigned to %s!", result.ReviewerName),
		"idea_id":       result.IdeaID,
		"reviewer_name": result.ReviewerName,
		"beans_added":   result.BeansAdded,
	})
}

// ListIdeas handles GET /ideas
func (h *IdeaHandler) ListIdeas(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	ideas, err := h.ideas.List(ctx)
	if err != nil {
		respondError(c, err, "Failed to fetch ideas")
		return
	}
	c.JSON(http.StatusOK, ideas)
}

// GetIdea handles GET /ideas/:ideaId
func (h *IdeaHandler) GetIdea(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	idea, err := h.ideas.FindByID(ctx, c.Param("ideaId"))
	if err != nil {
		respondError(c, err, "Failed to fetch idea")
		return
	}
	if idea == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Idea not found"})
		return
	}
	c.JSON(http.StatusOK, idea)
}

// UpdateIdea handles PUT /ideas/:ideaId. Any caller may patch any field,
// including the review fields; the caller is only logged.
func (h *IdeaHandler) UpdateIdea(c *gin.Context) {
	var patch models.IdeaPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	fields := patch.Fields()
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	ideaID := c.Param("ideaId")
	updated, err := h.ideas.UpdateFields(ctx, ideaID, fields)
	if err != nil {
		respondError(c, err, "Failed to update idea")
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "Idea not found or not modified"})
		return
	}

	log.Printf("[IdeaHandler] Idea %s patched by %s (%d fields)", ideaID, middleware.CallerEmail(c.Request.Context()), len(fields))
	c.JSON(http.StatusOK, gin.H{"message": "Idea updated successfully!"})
}

// AssignIdeaPayload names the user who should review the idea.
type AssignIdeaPayload struct {
	ReviewerEmail string `json:"reviewer_email" binding:"required"`
}

// AssignIdea handles POST /ideas/:ideaId/assign
func (h *IdeaHandler) AssignIdea(c *gin.Context) {
	var payload AssignIdeaPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	ideaID := c.Param("ideaId")
	if err := h.assigner.AssignToReviewer(ctx, ideaID, payload.ReviewerEmail); err != nil {
		respondError(c, err, "Failed to assign idea")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Idea %s assigned to %s", ideaID, models.NormalizeEmail(payload.ReviewerEmail)),
	})
}

// GetReviewIdeas handles GET /review-ideas?ids=a,b,c
func (h *IdeaHandler) GetReviewIdeas(c *gin.Context) {
	var ids []string
	for _, id := range strings.Split(c.Query("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		respondError(c, fmt.Errorf("%w: ids query parameter is required", services.ErrValidation), "")
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	ideas, err := h.ideas.FindManyByID(ctx, ids)
	if err != nil {
		respondError(c, err, "Failed to fetch ideas")
		return
	}
	if len(ideas) == 0 {
		respondError(c, services.ErrNoneFound, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ideas": ideas})
}
