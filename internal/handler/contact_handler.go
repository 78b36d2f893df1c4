package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"contact_book/internal/middleware"
	"contact_book/internal/model"
	"contact_book/internal/service"

	"github.com/gin-gonic/gin"
)

// ContactHandler handles contact book requests
type ContactHandler struct {
	service service.ContactService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(s service.ContactService) *ContactHandler {
	return &ContactHandler{service: s}
}

// Helper to get the authenticated caller identity from context
func getAuthUser(c *gin.Context) (model.AuthUser, error) {
	val, exists := c.Get(middleware.AuthUserKey)
	if !exists {
		return model.AuthUser{}, errors.New("caller identity not found in context")
	}
	user, ok := val.(model.AuthUser)
	if !ok {
		return model.AuthUser{}, errors.New("invalid caller identity type in context")
	}
	return user, nil
}

func (h *ContactHandler) ListContacts(c *gin.Context) {
	user, err := getAuthUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	contacts, err := h.service.ListContacts(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing contacts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve contacts"})
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *ContactHandler) CreateContact(c *gin.Context) {
	user, err := getAuthUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req model.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	contact, err := h.service.CreateContact(c.Request.Context(), user.ID, req)
	if err != nil {
		var validationErr *service.ValidationError
		var dupErr *service.DuplicatePhoneError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Msg})
		case errors.As(err, &dupErr):
			c.JSON(http.StatusConflict, gin.H{"error": dupErr.Error()})
		default:
			log.Printf("Error creating contact: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contact"})
		}
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *ContactHandler) GetContact(c *gin.Context) {
	user, err := getAuthUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	contactID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contact ID"})
		return
	}

	contact, err := h.service.GetContact(c.Request.Context(), user.ID, contactID)
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
			return
		}
		log.Printf("Error getting contact: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve contact"})
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) UpdateContact(c *gin.Context) {
	user, err := getAuthUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	contactID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contact ID"})
		return
	}

	var req model.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	contact, err := h.service.UpdateContact(c.Request.Context(), user.ID, contactID, req)
	if err != nil {
		var validationErr *service.ValidationError
		var dupErr *service.DuplicatePhoneError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Msg})
		case errors.Is(err, service.ErrContactNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		case errors.As(err, &dupErr):
			c.JSON(http.StatusConflict, gin.H{"error": dupErr.Error()})
		default:
			log.Printf("Error updating contact: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update contact"})
		}
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) DeleteContact(c *gin.Context) {
	user, err := getAuthUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	contactID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contact ID"})
		return
	}

	if err := h.service.DeleteContact(c.Request.Context(), user.ID, contactID); err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
			return
		}
		log.Printf("Error deleting contact: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contact"})
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterContactRoutes registers contact routes
func (h *ContactHandler) RegisterContactRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	contactRoutes := rg.Group("/contacts")
	contactRoutes.Use(authMW)
	{
		contactRoutes.GET("", h.ListContacts)
		contactRoutes.POST("", h.CreateContact)
		contactRoutes.GET("/:id", h.GetContact)
		contactRoutes.PUT("/:id", h.UpdateContact)
		contactRoutes.DELETE("/:id", h.DeleteContact)
	}
}
