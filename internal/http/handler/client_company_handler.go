package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/repository"
	"github.com/woodline/crm-api/internal/service"
	"go.uber.org/zap"
)

type ClientCompanyHandler struct {
	companyService *service.ClientCompanyService
	contactService *service.ContactService
	logger         *zap.Logger
}

func NewClientCompanyHandler(companyService *service.ClientCompanyService, contactService *service.ContactService, logger *zap.Logger) *ClientCompanyHandler {
	return &ClientCompanyHandler{
		companyService: companyService,
		contactService: contactService,
		logger:         logger,
	}
}

// List godoc
// @Summary List client companies
// @Tags ClientCompanies
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by name or org number"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ClientCompanyDTO}
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /client-companies [get]
func (h *ClientCompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	page, pageSize = repository.NormalizePage(page, pageSize)

	companies, total, err := h.companyService.List(r.Context(), page, pageSize, r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("failed to list client companies", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, domain.NewPaginatedResponse(companies, total, page, pageSize))
}

// Create godoc
// @Summary Create client company
// @Tags ClientCompanies
// @Accept json
// @Produce json
// @Param company body domain.CreateClientCompanyRequest true "Company data"
// @Success 201 {object} domain.ClientCompanyDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /client-companies [post]
func (h *ClientCompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateClientCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	company, err := h.companyService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create client company", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, company)
}

// GetByID godoc
// @Summary Get client company by ID
// @Tags ClientCompanies
// @Accept json
// @Produce json
// @Param id path string true "Company ID" format(uuid)
// @Success 200 {object} domain.ClientCompanyDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /client-companies/{id} [get]
func (h *ClientCompanyHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid company ID format")
		return
	}

	company, err := h.companyService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, company)
}

// ListContacts godoc
// @Summary List company contacts
// @Tags ClientCompanies
// @Accept json
// @Produce json
// @Param id path string true "Company ID" format(uuid)
// @Success 200 {array} domain.ContactDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /client-companies/{id}/contacts [get]
func (h *ClientCompanyHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid company ID format")
		return
	}

	contacts, err := h.contactService.ListByClientCompany(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, contacts)
}

// Update godoc
// @Summary Update client company
// @Tags ClientCompanies
// @Accept json
// @Produce json
// @Param id path string true "Company ID" format(uuid)
// @Param company body domain.UpdateClientCompanyRequest true "Fields to update"
// @Success 200 {object} domain.ClientCompanyDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /client-companies/{id} [put]
func (h *ClientCompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid company ID format")
		return
	}

	var req domain.UpdateClientCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	company, err := h.companyService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update client company", zap.String("company_id", id.String()), zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, company)
}

// Delete godoc
// @Summary Delete client company
// @Description Delete a client company. Rejected while contacts are attached to it.
// @Tags ClientCompanies
// @Accept json
// @Produce json
// @Param id path string true "Company ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /client-companies/{id} [delete]
func (h *ClientCompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid company ID format")
		return
	}

	if err := h.companyService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
