package people

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/people-api/backend/internal/model/person"
	"github.com/zhouzirui/people-api/backend/internal/service/directory"
	"github.com/zhouzirui/people-api/backend/pkg/utils"
)

const (
	msgNotFound      = "That person does not exist"
	msgAlreadyExists = "That person already exists"
	msgInvalidBody   = "invalid request body"

	maxBodyBytes = 1 << 20
)

// Directory is the record store the handler serves.
type Directory interface {
	List(ctx context.Context) []person.Person
	Get(ctx context.Context, lname string) (person.Person, error)
	Create(ctx context.Context, p person.Person) (person.Person, error)
	Replace(ctx context.Context, lname string, p person.Person) (person.Person, error)
	Delete(ctx context.Context, lname string) error
}

// Handler people 资源的HTTP处理器
type Handler struct {
	dir Directory
}

// New 创建people处理器
func New(dir Directory) *Handler {
	return &Handler{dir: dir}
}

// RegisterRoutes 注册 /people 相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/people", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{lname}", h.handleGet)
		r.Put("/{lname}", h.handleReplace)
		r.Delete("/{lname}", h.handleDelete)
	})
}

// handleList 按 lname 升序返回全部记录
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.dir.List(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.dir.Get(r.Context(), chi.URLParam(r, "lname"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

// handleCreate 新建记录，lname 已存在时返回 409 且不覆盖
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePerson(w, r)
	if !ok {
		return
	}

	created, err := h.dir.Create(r.Context(), p)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

// handleReplace 整体替换已有记录，成功时沿用 201
func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePerson(w, r)
	if !ok {
		return
	}

	replaced, err := h.dir.Replace(r.Context(), chi.URLParam(r, "lname"), p)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, replaced)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.dir.Delete(r.Context(), chi.URLParam(r, "lname")); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondNoContent(w)
}

func decodePerson(w http.ResponseWriter, r *http.Request) (person.Person, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, msgInvalidBody)
		return person.Person{}, false
	}

	// Unmarshal rejects trailing data after the object.
	var p person.Person
	if err := json.Unmarshal(body, &p); err != nil {
		if errors.Is(err, person.ErrInvalid) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		} else {
			utils.RespondError(w, http.StatusBadRequest, msgInvalidBody)
		}
		return person.Person{}, false
	}
	return p, true
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, directory.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, directory.ErrConflict):
		utils.RespondError(w, http.StatusConflict, msgAlreadyExists)
	case errors.Is(err, directory.ErrInvalid):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[people] unexpected directory error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
