package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/stanley00316/election-system-demo-sub004/internal/analysis"
	"github.com/stanley00316/election-system-demo-sub004/internal/cache"
	"github.com/stanley00316/election-system-demo-sub004/internal/database"
	apperrors "github.com/stanley00316/election-system-demo-sub004/internal/errors"
	"github.com/stanley00316/election-system-demo-sub004/internal/monitoring"
	"github.com/stanley00316/election-system-demo-sub004/internal/security"
	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

const (
	campaignParam    = "campaignID"
	maxInfluencerCap = 100
)

// Repository is the storage surface the handlers need
type Repository interface {
	analysis.DataSource
	analysis.InfluenceWriter

	DataVersion(ctx context.Context, campaignID string) (int64, error)
	BumpVersion(ctx context.Context, campaignID string) error

	CreateVoter(ctx context.Context, v types.Voter) (types.Voter, error)
	GetVoter(ctx context.Context, campaignID, voterID string) (types.Voter, error)
	SoftDeleteVoter(ctx context.Context, campaignID, voterID string) error
	CreateRelationship(ctx context.Context, rel types.VoterRelationship) (types.VoterRelationship, error)
	CreateContact(ctx context.Context, c types.Contact) (types.Contact, error)
	UpdateContactNotes(ctx context.Context, campaignID, contactID string, notes *string, followUpAt *time.Time) (types.Contact, error)
	CreateDistrict(ctx context.Context, d types.District) (types.District, error)
	GetDistrict(ctx context.Context, campaignID, districtID string) (types.District, error)
}

// Handler serves the campaign API
type Handler struct {
	repo     Repository
	analyzer *analysis.Analyzer
	settings *analysis.SettingsStore
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	maxText  int
}

// fail maps storage errors onto API errors and hands them to ErrorHandler
func fail(c *gin.Context, err error, resource, id string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		_ = c.Error(apperrors.NewNotFoundError(resource, id))
	case errors.Is(err, database.ErrInvalidHierarchy):
		_ = c.Error(apperrors.NewValidationError(err.Error()))
	default:
		_ = c.Error(apperrors.ToAppError(err))
	}
}

func (h *Handler) period(c *gin.Context) (analysis.Period, bool) {
	p, err := analysis.ParsePeriod(c.Query("period"), h.analyzer.Now())
	if err != nil {
		_ = c.Error(apperrors.NewValidationError("Invalid period", err.Error()))
		return analysis.Period{}, false
	}
	return p, true
}

// reportCacheKey keys cached analytics on the campaign's data version, so
// any write makes earlier entries unreachable.
func (h *Handler) reportCacheKey(c *gin.Context) (string, bool) {
	campaignID := c.Param(campaignParam)
	p, err := analysis.ParsePeriod(c.Query("period"), h.analyzer.Now())
	if err != nil {
		return "", false
	}
	version, err := h.repo.DataVersion(c.Request.Context(), campaignID)
	if err != nil {
		h.logger.Warn("Data version lookup failed, bypassing cache", "campaign_id", campaignID, "error", err)
		return "", false
	}
	return cache.ReportKey(campaignID, version, p.Label), true
}

func (h *Handler) createVoter(c *gin.Context) {
	var req createVoterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}
	voter, err := h.repo.CreateVoter(c.Request.Context(), req.toVoter(c.Param(campaignParam), h.maxText))
	if err != nil {
		fail(c, err, "voter", req.ID)
		return
	}
	c.JSON(http.StatusCreated, voter)
}

func (h *Handler) listVoters(c *gin.Context) {
	voters, err := h.repo.ListVoters(c.Request.Context(), c.Param(campaignParam))
	if err != nil {
		fail(c, err, "voters", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"voters": voters, "count": len(voters)})
}

func (h *Handler) getVoter(c *gin.Context) {
	voterID := c.Param("voterID")
	voter, err := h.repo.GetVoter(c.Request.Context(), c.Param(campaignParam), voterID)
	if err != nil {
		fail(c, err, "voter", voterID)
		return
	}
	c.JSON(http.StatusOK, voter)
}

func (h *Handler) deleteVoter(c *gin.Context) {
	voterID := c.Param("voterID")
	if err := h.repo.SoftDeleteVoter(c.Request.Context(), c.Param(campaignParam), voterID); err != nil {
		fail(c, err, "voter", voterID)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createRelationship(c *gin.Context) {
	var req createRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}
	rel, err := h.repo.CreateRelationship(c.Request.Context(), req.toRelationship(c.Param(campaignParam)))
	if err != nil {
		fail(c, err, "relationship", req.ID)
		return
	}
	c.JSON(http.StatusCreated, rel)
}

func (h *Handler) listRelationships(c *gin.Context) {
	rels, err := h.repo.ListRelationships(c.Request.Context(), c.Param(campaignParam))
	if err != nil {
		fail(c, err, "relationships", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationships": rels, "count": len(rels)})
}

func (h *Handler) createContact(c *gin.Context) {
	var req createContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}
	contact, err := h.repo.CreateContact(c.Request.Context(), req.toContact(c.Param(campaignParam), h.analyzer.Now(), h.maxText))
	if err != nil {
		fail(c, err, "contact", "")
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *Handler) listContacts(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	contacts, err := h.repo.ListContacts(c.Request.Context(), c.Param(campaignParam), p.From, p.To)
	if err != nil {
		fail(c, err, "contacts", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts, "count": len(contacts), "period": p})
}

func (h *Handler) updateContact(c *gin.Context) {
	contactID := c.Param("contactID")
	var req updateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}
	if req.Notes == nil && req.FollowUpAt == nil {
		_ = c.Error(apperrors.NewValidationError("notes or follow_up_at is required"))
		return
	}
	if req.Notes != nil {
		clean := security.SanitizeText(*req.Notes, h.maxText)
		req.Notes = &clean
	}

	contact, err := h.repo.UpdateContactNotes(c.Request.Context(), c.Param(campaignParam), contactID, req.Notes, req.FollowUpAt)
	if err != nil {
		fail(c, err, "contact", contactID)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *Handler) createDistrict(c *gin.Context) {
	var req createDistrictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}
	district, err := h.repo.CreateDistrict(c.Request.Context(), req.toDistrict(c.Param(campaignParam), h.maxText))
	if err != nil {
		fail(c, err, "district", req.ID)
		return
	}
	c.JSON(http.StatusCreated, district)
}

func (h *Handler) listDistricts(c *gin.Context) {
	districts, err := h.repo.ListDistricts(c.Request.Context(), c.Param(campaignParam))
	if err != nil {
		fail(c, err, "districts", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"districts": districts, "count": len(districts)})
}

func (h *Handler) analytics(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	report, err := h.analyzer.BuildReport(c.Request.Context(), c.Param(campaignParam), p)
	if err != nil {
		h.metrics.RecordReport(0, err)
		fail(c, err, "analytics", "")
		return
	}
	h.metrics.RecordReport(len(report.Warnings), nil)
	c.JSON(http.StatusOK, report)
}

func (h *Handler) voterInfluence(c *gin.Context) {
	voterID := c.Param("voterID")
	result, warnings, err := h.analyzer.VoterInfluence(c.Request.Context(), c.Param(campaignParam), voterID)
	if err != nil {
		fail(c, err, "voter", voterID)
		return
	}
	messages := make([]string, len(warnings))
	for i, w := range warnings {
		messages[i] = w.Message
	}
	c.JSON(http.StatusOK, gin.H{"influence": result, "warnings": messages})
}

func (h *Handler) topInfluencers(c *gin.Context) {
	campaignID := c.Param(campaignParam)
	cfg, err := h.analyzer.ConfigFor(campaignID)
	if err != nil {
		fail(c, err, "settings", campaignID)
		return
	}

	limit := cfg.TopInfluencerLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxInfluencerCap {
			_ = c.Error(apperrors.NewValidationError("limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	ranked, err := h.analyzer.TopInfluencers(c.Request.Context(), campaignID, limit)
	if err != nil {
		fail(c, err, "influencers", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"influencers": ranked, "limit": limit})
}

func (h *Handler) recomputeInfluence(c *gin.Context) {
	updated, err := h.analyzer.RecomputeInfluenceScores(c.Request.Context(), c.Param(campaignParam), h.repo)
	if err != nil {
		fail(c, err, "influence", "")
		return
	}
	h.metrics.IncrementInfluenceRecompute()
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *Handler) districtBreakdown(c *gin.Context) {
	campaignID := c.Param(campaignParam)
	districtID := c.Param("districtID")
	p, ok := h.period(c)
	if !ok {
		return
	}
	if _, err := h.repo.GetDistrict(c.Request.Context(), campaignID, districtID); err != nil {
		fail(c, err, "district", districtID)
		return
	}

	breakdown, warnings, err := h.analyzer.DistrictBreakdown(c.Request.Context(), campaignID, districtID, p)
	if err != nil {
		fail(c, err, "district", districtID)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"breakdown": breakdown, "warnings": warnings, "period": p})
}

func (h *Handler) winProbability(c *gin.Context) {
	p, ok := h.period(c)
	if !ok {
		return
	}
	result, err := h.analyzer.WinProbability(c.Request.Context(), c.Param(campaignParam), p)
	if err != nil {
		fail(c, err, "win probability", "")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getSettings(c *gin.Context) {
	campaignID := c.Param(campaignParam)
	overrides, err := h.settings.Load(campaignID)
	if err != nil {
		_ = c.Error(apperrors.NewValidationError("Cannot load campaign settings", err.Error()))
		return
	}
	effective := overrides.Apply(h.analyzer.Defaults())
	c.JSON(http.StatusOK, gin.H{"overrides": overrides, "effective": effective})
}

func (h *Handler) putSettings(c *gin.Context) {
	campaignID := c.Param(campaignParam)
	var overrides analysis.CampaignSettings
	var bind binding.Binding = binding.JSON
	if strings.Contains(c.ContentType(), "yaml") {
		bind = binding.YAML
	}
	if err := c.ShouldBindWith(&overrides, bind); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	effective := overrides.Apply(h.analyzer.Defaults())
	if err := effective.Validate(); err != nil {
		_ = c.Error(apperrors.NewValidationError("Invalid campaign settings", err.Error()))
		return
	}
	if err := h.settings.Save(campaignID, &overrides, h.analyzer.Defaults()); err != nil {
		_ = c.Error(apperrors.NewInternalError("Failed to save campaign settings", err))
		return
	}
	// settings feed every report, so cached ones are stale now
	if err := h.repo.BumpVersion(c.Request.Context(), campaignID); err != nil {
		fail(c, err, "settings", campaignID)
		return
	}

	h.logger.Info("Campaign settings updated", "campaign_id", campaignID)
	c.JSON(http.StatusOK, gin.H{"overrides": overrides, "effective": effective})
}
