package stubserver

import (
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workshop-timer/internal/domain"
	"workshop-timer/internal/restapi"
)

// Server is a development stand-in for the workshop ERP backend. It
// implements the time tracking contract the client consumes, including
// the single-running-entry invariant, so the client can be exercised
// end to end without the real ERP. State is in-memory only.
type Server struct {
	mu            sync.Mutex
	entries       map[string]*restapi.TimeEntryPayload
	interruptions map[string]*restapi.InterruptionPayload
	activities    map[string]*restapi.ActivityPayload
	runningID     string // id of the open entry, empty when none
	userID        string
	now           func() time.Time
}

// New creates a stub server seeded with the predefined activity catalog.
func New() *Server {
	s := &Server{
		entries:       make(map[string]*restapi.TimeEntryPayload),
		interruptions: make(map[string]*restapi.InterruptionPayload),
		activities:    make(map[string]*restapi.ActivityPayload),
		userID:        "stub-user",
		now:           time.Now,
	}
	s.seedActivities()
	return s
}

// SetClock overrides the server clock, for tests.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Server) seedActivities() {
	seed := []restapi.ActivityPayload{
		{ID: "act-soldering", Name: "Soldering", Category: string(domain.CategoryFabrication)},
		{ID: "act-stone-setting", Name: "Stone setting", Category: string(domain.CategoryFabrication)},
		{ID: "act-polishing", Name: "Polishing", Category: string(domain.CategoryFabrication)},
		{ID: "act-engraving", Name: "Engraving", Category: string(domain.CategoryFabrication)},
		{ID: "act-invoicing", Name: "Invoicing", Category: string(domain.CategoryAdministration)},
		{ID: "act-customer-call", Name: "Customer call", Category: string(domain.CategoryAdministration)},
		{ID: "act-waiting-material", Name: "Waiting for material", Category: string(domain.CategoryWaiting)},
	}
	for i := range seed {
		a := seed[i]
		s.activities[a.ID] = &a
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api/v1")
	{
		api.POST("/time-entries", s.startEntry)
		api.GET("/time-entries/running", s.getRunningEntry)
		api.POST("/time-entries/:id/stop", s.stopEntry)
		api.POST("/time-entries/:id/interruptions", s.addInterruption)
		api.PATCH("/interruptions/:id", s.updateInterruption)
		api.GET("/activities", s.listActivities)
		api.GET("/activities/most-used", s.mostUsedActivities)
	}

	return r
}

func (s *Server) startEntry(c *gin.Context) {
	var req restapi.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if req.OrderID == "" || req.ActivityID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId and activityId are required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningID != "" {
		c.JSON(http.StatusConflict, gin.H{"error": "a time entry is already running for this user"})
		return
	}
	if _, ok := s.activities[req.ActivityID]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown activity: " + req.ActivityID})
		return
	}

	entry := &restapi.TimeEntryPayload{
		ID:         uuid.NewString(),
		OrderID:    req.OrderID,
		UserID:     s.userID,
		ActivityID: req.ActivityID,
		StartTime:  s.now().UTC(),
		Location:   req.Location,
		Notes:      req.Notes,
	}
	s.entries[entry.ID] = entry
	s.runningID = entry.ID

	c.JSON(http.StatusCreated, entry)
}

func (s *Server) getRunningEntry(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningID == "" {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, s.entries[s.runningID])
}

func (s *Server) stopEntry(c *gin.Context) {
	var req restapi.StopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if !validRating(req.ComplexityRating) || !validRating(req.QualityRating) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ratings must be between 1 and 5"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	entry, ok := s.entries[id]
	if !ok || entry.EndTime != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "time entry not found or already closed: " + id})
		return
	}

	end := s.now().UTC()
	minutes := domain.ClampDurationMinutes(entry.StartTime, end)
	entry.EndTime = &end
	entry.DurationMinutes = &minutes
	entry.ComplexityRating = req.ComplexityRating
	entry.QualityRating = req.QualityRating
	entry.ReworkRequired = req.ReworkRequired
	if req.Notes != "" {
		entry.Notes = req.Notes
	}
	s.runningID = ""

	s.recordUsage(entry.ActivityID, minutes, end)

	c.JSON(http.StatusOK, entry)
}

// recordUsage updates the server-derived usage statistics of an
// activity when an entry referencing it is closed.
func (s *Server) recordUsage(activityID string, minutes int, closedAt time.Time) {
	activity, ok := s.activities[activityID]
	if !ok {
		return
	}
	total := activity.AverageDurationMinutes*float64(activity.UsageCount) + float64(minutes)
	activity.UsageCount++
	activity.AverageDurationMinutes = total / float64(activity.UsageCount)
	t := closedAt
	activity.LastUsed = &t
}

func (s *Server) addInterruption(c *gin.Context) {
	var req restapi.InterruptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if req.Reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	entry, ok := s.entries[id]
	if !ok || entry.EndTime != nil {
		// Interruptions may only reference a still-open entry.
		c.JSON(http.StatusNotFound, gin.H{"error": "time entry not found or already closed: " + id})
		return
	}

	interruption := &restapi.InterruptionPayload{
		ID:              uuid.NewString(),
		TimeEntryID:     entry.ID,
		Reason:          req.Reason,
		DurationMinutes: req.DurationMinutes,
		Timestamp:       s.now().UTC(),
	}
	s.interruptions[interruption.ID] = interruption

	c.JSON(http.StatusCreated, interruption)
}

func (s *Server) updateInterruption(c *gin.Context) {
	var req restapi.InterruptionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if req.DurationMinutes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "durationMinutes must not be negative"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	interruption, ok := s.interruptions[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "interruption not found: " + id})
		return
	}

	interruption.DurationMinutes = req.DurationMinutes
	c.JSON(http.StatusOK, interruption)
}

func (s *Server) listActivities(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	activities := s.sortedActivities(c.Query("sortByUsage") == "true")
	c.JSON(http.StatusOK, activities)
}

func (s *Server) mostUsedActivities(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ranked := make([]restapi.ActivityPayload, 0)
	for _, a := range s.sortedActivities(true) {
		if a.UsageCount > 0 {
			ranked = append(ranked, a)
		}
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	c.JSON(http.StatusOK, ranked)
}

func (s *Server) sortedActivities(byUsage bool) []restapi.ActivityPayload {
	activities := make([]restapi.ActivityPayload, 0, len(s.activities))
	for _, a := range s.activities {
		activities = append(activities, *a)
	}
	if byUsage {
		sort.SliceStable(activities, func(i, j int) bool {
			if activities[i].UsageCount != activities[j].UsageCount {
				return activities[i].UsageCount > activities[j].UsageCount
			}
			return activities[i].Name < activities[j].Name
		})
	} else {
		sort.Slice(activities, func(i, j int) bool {
			return activities[i].Name < activities[j].Name
		})
	}
	return activities
}

func validRating(r *int) bool {
	return r == nil || (*r >= 1 && *r <= 5)
}
