package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sapiocode/sapio/internal/affect"
	"github.com/sapiocode/sapio/internal/transcribe"
	"github.com/sapiocode/sapio/internal/tutor"
)

type handlers struct {
	svc *tutor.Service
}

func (h *handlers) register(r gin.IRouter) {
	r.POST("/analyze", h.analyze)
	r.POST("/interventions/decide", h.decide)
	r.POST("/hints", h.hint)
	r.POST("/mastery", h.updateMastery)
	r.POST("/submissions", h.submit)
	r.POST("/affect", h.observeAffect)

	students := r.Group("/students/:id")
	students.GET("/mastery", h.masterySummary)
	students.GET("/affect", h.affectSummary)
	students.GET("/profile", h.profile)
	students.POST("/profile", h.refreshProfile)

	r.POST("/viva", h.startViva)
	sessions := r.Group("/viva/:id")
	sessions.GET("", h.vivaSession)
	sessions.GET("/question", h.vivaQuestion)
	sessions.POST("/answers", h.vivaAnswer)
	sessions.POST("/audio", h.vivaAudio)
	sessions.GET("/verdict", h.vivaVerdict)
}

// bind decodes the JSON body into dst and reports whether it succeeded.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

type analyzeRequest struct {
	Code string `json:"code"`
}

func (h *handlers) analyze(c *gin.Context) {
	var req analyzeRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.svc.Analyze(c.Request.Context(), req.Code))
}

func (h *handlers) decide(c *gin.Context) {
	var req tutor.DecisionRequest
	if !bind(c, &req) {
		return
	}
	d, err := h.svc.DecideIntervention(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handlers) hint(c *gin.Context) {
	var req tutor.HintRequest
	if !bind(c, &req) {
		return
	}
	hint, err := h.svc.Hint(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, hint)
}

type masteryRequest struct {
	StudentID string                 `json:"student_id"`
	Concept   string                 `json:"concept"`
	Correct   bool                   `json:"correct"`
	Affect    *affect.CognitiveState `json:"affect,omitempty"`
}

func (h *handlers) updateMastery(c *gin.Context) {
	var req masteryRequest
	if !bind(c, &req) {
		return
	}
	ch, err := h.svc.UpdateMastery(c.Request.Context(), req.StudentID, req.Concept, req.Correct, req.Affect)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

type submissionRequest struct {
	StudentID string                 `json:"student_id"`
	Code      string                 `json:"code"`
	Correct   bool                   `json:"correct"`
	Concepts  []string               `json:"concepts,omitempty"`
	Affect    *affect.CognitiveState `json:"affect,omitempty"`
}

func (h *handlers) submit(c *gin.Context) {
	var req submissionRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.ProcessSubmission(c.Request.Context(), tutor.Submission{
		StudentID: req.StudentID,
		Code:      req.Code,
		Correct:   req.Correct,
		Concepts:  req.Concepts,
		Affect:    req.Affect,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type affectRequest struct {
	StudentID   string             `json:"student_id"`
	Expressions affect.Expressions `json:"expressions"`
}

func (h *handlers) observeAffect(c *gin.Context) {
	var req affectRequest
	if !bind(c, &req) {
		return
	}
	a, err := h.svc.ObserveAffect(req.StudentID, req.Expressions)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *handlers) masterySummary(c *gin.Context) {
	sum, err := h.svc.MasterySummary(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *handlers) affectSummary(c *gin.Context) {
	sum, err := h.svc.AffectSummary(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *handlers) profile(c *gin.Context) {
	p, ok := h.svc.Profile(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "not_found", fmt.Errorf("no profile for student %q", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) refreshProfile(c *gin.Context) {
	queued, err := h.svc.RefreshProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if !queued {
		respondError(c, http.StatusServiceUnavailable, "llm_disabled", fmt.Errorf("learner profiles need an LLM provider"))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}

type startVivaRequest struct {
	StudentID string `json:"student_id"`
	Code      string `json:"code"`
	N         int    `json:"n"`
}

func (h *handlers) startViva(c *gin.Context) {
	var req startVivaRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.svc.StartViva(c.Request.Context(), req.StudentID, req.Code, req.N)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *handlers) vivaSession(c *gin.Context) {
	sess, err := h.svc.Viva().Session(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *handlers) vivaQuestion(c *gin.Context) {
	q, err := h.svc.Viva().Current(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type answerRequest struct {
	Transcript string  `json:"transcript"`
	Duration   float64 `json:"duration"`
}

func (h *handlers) vivaAnswer(c *gin.Context) {
	var req answerRequest
	if !bind(c, &req) {
		return
	}
	ev, err := h.svc.SubmitVivaAnswer(c.Request.Context(), c.Param("id"), req.Transcript, req.Duration)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (h *handlers) vivaAudio(c *gin.Context) {
	fh, err := c.FormFile("audio")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("multipart field \"audio\" is required: %w", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondErr(c, err)
		return
	}
	defer f.Close()

	// One byte past the limit is enough for validation to reject it.
	data, err := io.ReadAll(io.LimitReader(f, transcribe.MaxAudioBytes+1))
	if err != nil {
		respondErr(c, err)
		return
	}

	res, err := h.svc.SubmitVivaAudio(c.Request.Context(), c.Param("id"), transcribe.Audio{
		Data:     data,
		Filename: fh.Filename,
		Language: c.PostForm("language"),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) vivaVerdict(c *gin.Context) {
	rep, err := h.svc.VivaVerdict(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
