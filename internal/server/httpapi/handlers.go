package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/claimflow/internal/common"
	"github.com/dmitrijs2005/claimflow/internal/server/models"
	"github.com/dmitrijs2005/claimflow/internal/server/services"
)

const claimMonthLayout = "2006-01"

// maxMultipartMemory bounds the in-memory portion of a multipart parse;
// larger parts spill to temp files.
const maxMultipartMemory = 32 << 20

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error  string               `json:"error"`
	Fields []fieldErrorResponse `json:"fields,omitempty"`
}

type documentResponse struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
}

type claimResponse struct {
	ID              int64  `json:"id"`
	LecturerName    string `json:"lecturer_name"`
	LecturerEmail   string `json:"lecturer_email"`
	ClaimMonth      string `json:"claim_month"`
	HoursWorked     string `json:"hours_worked"`
	HourlyRate      string `json:"hourly_rate"`
	TotalAmount     string `json:"total_amount"`
	AdditionalNotes string `json:"additional_notes,omitempty"`

	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`

	CoordinatorReviewedAt *time.Time `json:"coordinator_reviewed_at,omitempty"`
	CoordinatorComments   string     `json:"coordinator_comments,omitempty"`
	ManagerReviewedAt     *time.Time `json:"manager_reviewed_at,omitempty"`
	ManagerComments       string     `json:"manager_comments,omitempty"`

	Documents []documentResponse `json:"documents"`
}

type createClaimResponse struct {
	Claim    claimResponse `json:"claim"`
	Warnings []string      `json:"warnings,omitempty"`
}

type reviewRequest struct {
	Comments string `json:"comments"`
}

type approveResponse struct {
	ApprovedAmount string `json:"approved_amount"`
}

func toClaimResponse(c *models.Claim) claimResponse {
	resp := claimResponse{
		ID:              c.ID,
		LecturerName:    c.LecturerName,
		LecturerEmail:   c.LecturerEmail,
		ClaimMonth:      c.ClaimMonth.Format(claimMonthLayout),
		HoursWorked:     c.HoursWorked.String(),
		HourlyRate:      c.HourlyRate.String(),
		TotalAmount:     c.TotalAmount().StringFixed(2),
		AdditionalNotes: c.AdditionalNotes,

		Status:      string(c.Status),
		SubmittedAt: c.SubmittedAt,

		CoordinatorReviewedAt: c.CoordinatorReviewedAt,
		CoordinatorComments:   c.CoordinatorComments,
		ManagerReviewedAt:     c.ManagerReviewedAt,
		ManagerComments:       c.ManagerComments,

		Documents: []documentResponse{},
	}
	for _, d := range c.Documents {
		resp.Documents = append(resp.Documents, documentResponse{
			ID:       d.ID,
			FileName: d.FileName,
			FileSize: d.FileSize,
			FileType: d.FileType,
		})
	}
	return resp
}

// writeError maps domain errors onto HTTP statuses. Unexpected errors are
// logged and answered with a generic message so internals never leak.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		fields := make([]fieldErrorResponse, len(ve.Fields))
		for i, f := range ve.Fields {
			fields[i] = fieldErrorResponse{Field: f.Field, Message: f.Message}
		}
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, errorResponse{Error: "validation failed", Fields: fields})
		return
	}

	switch {
	case errors.Is(err, common.ErrCommentsRequired):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "comments are required"})
	case errors.Is(err, common.ErrorNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: "not found"})
	case errors.Is(err, common.ErrInvalidTransition), errors.Is(err, common.ErrStatusConflict):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, errorResponse{Error: err.Error()})
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: "internal server error"})
	}
}

func (s *Server) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// createClaim accepts a multipart form: the claim fields plus zero or more
// evidence files under the "documents" key.
func (s *Server) createClaim(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "invalid multipart form"})
		return
	}

	claim := &models.Claim{
		LecturerName:    r.FormValue("lecturer_name"),
		LecturerEmail:   r.FormValue("lecturer_email"),
		AdditionalNotes: r.FormValue("additional_notes"),
	}

	var parseErrors []fieldErrorResponse

	month, err := time.Parse(claimMonthLayout, r.FormValue("claim_month"))
	if err != nil {
		parseErrors = append(parseErrors, fieldErrorResponse{
			Field: "ClaimMonth", Message: fmt.Sprintf("must be in %s format", claimMonthLayout),
		})
	} else {
		claim.ClaimMonth = month
	}

	if hours, err := decimal.NewFromString(r.FormValue("hours_worked")); err != nil {
		parseErrors = append(parseErrors, fieldErrorResponse{Field: "HoursWorked", Message: "must be a number"})
	} else {
		claim.HoursWorked = hours
	}

	if rate, err := decimal.NewFromString(r.FormValue("hourly_rate")); err != nil {
		parseErrors = append(parseErrors, fieldErrorResponse{Field: "HourlyRate", Message: "must be a number"})
	} else {
		claim.HourlyRate = rate
	}

	if len(parseErrors) > 0 {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, errorResponse{Error: "validation failed", Fields: parseErrors})
		return
	}

	var uploads []*services.Upload
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["documents"] {
			f, err := fh.Open()
			if err != nil {
				s.writeError(w, r, fmt.Errorf("opening upload %s: %w", fh.Filename, err))
				return
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				s.writeError(w, r, fmt.Errorf("reading upload %s: %w", fh.Filename, err))
				return
			}
			uploads = append(uploads, &services.Upload{FileName: fh.Filename, Content: content})
		}
	}

	res, err := s.claims.Create(r.Context(), &services.ClaimInput{Claim: claim, Uploads: uploads})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, createClaimResponse{Claim: toClaimResponse(res.Claim), Warnings: res.Warnings})
}

func (s *Server) listClaims(w http.ResponseWriter, r *http.Request) {
	list, err := s.claims.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := []claimResponse{}
	for _, c := range list {
		out = append(out, toClaimResponse(c))
	}
	render.JSON(w, r, out)
}

func (s *Server) listVerified(w http.ResponseWriter, r *http.Request) {
	list, err := s.claims.ListCoordinatorVerified(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := []claimResponse{}
	for _, c := range list {
		out = append(out, toClaimResponse(c))
	}
	render.JSON(w, r, out)
}

func (s *Server) getClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}

	claim, err := s.claims.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, toClaimResponse(claim))
}

func (s *Server) decodeReview(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req reviewRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "invalid request body"})
		return "", false
	}
	return req.Comments, true
}

func (s *Server) verifyClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	comments, ok := s.decodeReview(w, r)
	if !ok {
		return
	}

	claim, err := s.claims.Verify(r.Context(), id, comments)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, toClaimResponse(claim))
}

func (s *Server) rejectVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	comments, ok := s.decodeReview(w, r)
	if !ok {
		return
	}

	claim, err := s.claims.RejectVerification(r.Context(), id, comments)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, toClaimResponse(claim))
}

func (s *Server) approveClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	comments, ok := s.decodeReview(w, r)
	if !ok {
		return
	}

	amount, err := s.claims.Approve(r.Context(), id, comments)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, approveResponse{ApprovedAmount: amount})
}

func (s *Server) rejectClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	comments, ok := s.decodeReview(w, r)
	if !ok {
		return
	}

	claim, err := s.claims.Reject(r.Context(), id, comments)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, toClaimResponse(claim))
}

func (s *Server) downloadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}

	res, err := s.documents.Download(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Content)
}
