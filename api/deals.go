// ABOUTME: Deal and reference entity REST handlers
// ABOUTME: Implements GET/POST /deals, PATCH/DELETE /deals/:id and GET /products
package api

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harperreed/dealflow/db"
	"github.com/harperreed/dealflow/models"
)

type DealHandler struct {
	db *sql.DB
}

func (h *DealHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/deals", h.List)
	r.POST("/deals", h.Create)
	r.GET("/deals/:id", h.Get)
	r.PATCH("/deals/:id", h.Update)
	r.DELETE("/deals/:id", h.Delete)
	r.GET("/products", h.Entities)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *DealHandler) List(c *gin.Context) {
	deals, err := db.ListDeals(h.db)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, deals)
}

func (h *DealHandler) Get(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}
	deal, err := db.GetDeal(h.db, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

func (h *DealHandler) Create(c *gin.Context) {
	var draft models.DealDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	deal, err := db.CreateDeal(h.db, draft)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, deal)
}

func (h *DealHandler) Update(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}
	var patch models.DealPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	deal, err := db.UpdateDeal(h.db, id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

func (h *DealHandler) Delete(c *gin.Context) {
	id, ok := dealID(c)
	if !ok {
		return
	}
	if err := db.DeleteDeal(h.db, id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DealHandler) Entities(c *gin.Context) {
	entities, err := db.ListEntities(h.db)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entities)
}

func dealID(c *gin.Context) (models.DealID, bool) {
	id, err := models.ParseDealID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid deal id"})
		return 0, false
	}
	return id, true
}

func (h *DealHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidStage):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		log.Printf("[api] request_id=%s error=%q", RequestID(c.Request.Context()), err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
