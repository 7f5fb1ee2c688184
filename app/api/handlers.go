package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/profile-comb/app/database"
)

func NewHandler(profileRepo database.ProfileRepository,
	captureRepo database.CaptureRepository, reporter StatusReporter) *Handler {
	return &Handler{
		profileRepo: profileRepo,
		captureRepo: captureRepo,
		reporter:    reporter,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if profileCount, err := h.profileRepo.GetProfileCount(); err == nil {
		health["profiles"] = profileCount
	}

	health["runner"] = h.reporter.Status().Phase

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	status := h.reporter.Status()

	stats := map[string]interface{}{
		"runner": status,
	}

	if profileCount, err := h.profileRepo.GetProfileCount(); err == nil {
		stats["profiles"] = profileCount
	}
	if captureCount, err := h.captureRepo.GetCaptureCount(); err == nil {
		stats["captures"] = captureCount
	}
	if lastCapturedAt, err := h.captureRepo.GetLastCapturedAt(); err == nil && lastCapturedAt != nil {
		stats["last_captured_at"] = lastCapturedAt.In(time.Local).Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetProfile(c *gin.Context) {
	identifier := c.Param("identifier")
	if identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing identifier parameter"})
		return
	}

	profile, err := h.profileRepo.GetProfile(identifier)
	if err != nil {
		slog.Error("Database error", "operation", "get_profile", "identifier", identifier, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, profileDetails(profile))
}

func (h *Handler) APIListProfiles(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	profiles, err := h.profileRepo.GetProfiles(limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_profiles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]map[string]interface{}, 0, len(profiles))
	for i := range profiles {
		list = append(list, profileDetails(&profiles[i]))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"profiles": list,
		"total":    len(list),
	})
}

func profileDetails(p *database.Profile) map[string]interface{} {
	details := map[string]interface{}{
		"identifier":    p.Identifier,
		"nickname":      p.Nickname,
		"tags":          p.Tags,
		"city":          p.City,
		"gender":        p.Gender,
		"followers":     p.Followers,
		"posts":         p.Posts,
		"profile_link":  p.ProfileLink,
		"image_link":    p.ImageLink,
		"intro":         p.Intro,
		"seen_count":    p.SeenCount,
		"first_seen_at": p.FirstSeenAt,
		"last_seen_at":  p.LastSeenAt,
	}

	if p.Married != nil {
		details["married"] = *p.Married
	}
	if p.Age != nil {
		details["age"] = *p.Age
	}
	if p.JoinYear != nil {
		details["join_year"] = *p.JoinYear
	}
	if p.LastPost != "" {
		details["last_post"] = p.LastPost
	}
	if p.LastPostAt != nil {
		details["last_post_at"] = p.LastPostAt
	}

	return details
}
