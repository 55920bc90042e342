package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/agora-social/agora-sync/internal/domain"
	"github.com/agora-social/agora-sync/internal/logger"
	"github.com/agora-social/agora-sync/internal/social"
)

// Handler serves the REST surface over the entity layer
type Handler struct {
	service *social.Service
	session *social.Session
}

// NewHandler creates a REST handler bound to one session. The session is the
// server's own identity; read endpoints never need it.
func NewHandler(service *social.Service, session *social.Session) *Handler {
	return &Handler{service: service, session: session}
}

// HealthCheck reports liveness
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListCommunities returns every community. Collection reads fail soft: an
// unreachable ledger yields an empty, flagged collection rather than an
// error, so aggregate views stay available.
func (h *Handler) ListCommunities(c *gin.Context) {
	communities, err := h.service.GetAllCommunities(c.Request.Context())
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), err)
		c.JSON(http.StatusOK, gin.H{"communities": []*domain.Community{}, "degraded": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"communities": communities})
}

// GetCommunity returns one community by ID
func (h *Handler) GetCommunity(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	community, err := h.service.GetCommunity(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

// ListCommunityPosts returns a community's posts in index order
func (h *Handler) ListCommunityPosts(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	posts, err := h.service.GetCommunityPosts(c.Request.Context(), id)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), err)
		c.JSON(http.StatusOK, gin.H{"posts": []*domain.Post{}, "degraded": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// ListPosts returns every post by one creator, newest first
func (h *Handler) ListPosts(c *gin.Context) {
	creator, ok := parseAddressQuery(c, "creator")
	if !ok {
		return
	}
	posts, err := h.service.GetPostsByCreator(c.Request.Context(), creator)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), err)
		c.JSON(http.StatusOK, gin.H{"posts": []*domain.Post{}, "degraded": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetMembership answers whether an address is a member of a community
func (h *Handler) GetMembership(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	address, ok := parseAddressQuery(c, "address")
	if !ok {
		return
	}
	status, err := h.service.GetMembershipStatus(c.Request.Context(), id, address)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// createCommunityRequest is the creation payload
type createCommunityRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	JoinPolicy  string `json:"join_policy"`
	EntryFee    string `json:"entry_fee"`
	Mergeable   bool   `json:"mergeable"`
}

// CreateCommunity submits a community creation write
func (h *Handler) CreateCommunity(c *gin.Context) {
	var req createCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Validation failed", err.Error())
		return
	}

	policy, err := domain.ParseJoinPolicy(req.JoinPolicy)
	if err != nil {
		respondBadRequest(c, "Invalid join policy", err.Error())
		return
	}

	params := social.CreateCommunityParams{
		Name:        req.Name,
		Description: req.Description,
		JoinPolicy:  policy,
		Mergeable:   req.Mergeable,
	}
	if req.EntryFee != "" {
		fee, err := domain.ParseAmount(req.EntryFee)
		if err != nil {
			respondBadRequest(c, "Invalid entry fee", err.Error())
			return
		}
		params.EntryFee = fee
	}

	result, err := h.service.CreateCommunity(c.Request.Context(), h.session, params)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// JoinCommunity joins the server's session into a community
func (h *Handler) JoinCommunity(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	result, err := h.service.JoinCommunity(c.Request.Context(), h.session, id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// LeaveCommunity removes the server's session from a community
func (h *Handler) LeaveCommunity(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	result, err := h.service.LeaveCommunity(c.Request.Context(), h.session, id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetPost returns one post by ID
func (h *Handler) GetPost(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	post, err := h.service.GetPost(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// createPostRequest is the post creation payload
type createPostRequest struct {
	CommunityID         string    `json:"community_id" binding:"required"`
	Title               string    `json:"title"`
	Body                string    `json:"body"`
	Kind                string    `json:"kind"`
	ImageRef            string    `json:"image_ref"`
	Gated               bool      `json:"gated"`
	CollectibleContract string    `json:"collectible_contract"`
	CollectibleID       string    `json:"collectible_id"`
	Encrypted           bool      `json:"encrypted"`
	AccessDelegate      string    `json:"access_delegate"`
	CreatedAt           time.Time `json:"created_at"`
}

// CreatePost submits a post creation write
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Validation failed", err.Error())
		return
	}

	communityID, err := domain.ParseID(req.CommunityID)
	if err != nil {
		respondBadRequest(c, "Invalid community ID", err.Error())
		return
	}

	kind := domain.PostKind(req.Kind)
	if kind == "" {
		kind = domain.PostKindText
	}
	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	params := social.CreatePostParams{
		CommunityID: communityID,
		Metadata: domain.PostMetadata{
			Title:     req.Title,
			Body:      req.Body,
			Kind:      kind,
			ImageRef:  req.ImageRef,
			CreatedAt: createdAt,
		},
		Gated:     req.Gated,
		Encrypted: req.Encrypted,
	}
	if req.CollectibleContract != "" {
		address, ok := parseAddress(c, req.CollectibleContract, "collectible contract")
		if !ok {
			return
		}
		params.CollectibleContract = address
	}
	if req.CollectibleID != "" {
		collectibleID, err := domain.ParseID(req.CollectibleID)
		if err != nil {
			respondBadRequest(c, "Invalid collectible ID", err.Error())
			return
		}
		params.CollectibleID = collectibleID
	}
	if req.AccessDelegate != "" {
		address, ok := parseAddress(c, req.AccessDelegate, "access delegate")
		if !ok {
			return
		}
		params.AccessDelegate = address
	}

	result, err := h.service.CreatePost(c.Request.Context(), h.session, params)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetFeed returns the cross-community feed, newest first
func (h *Handler) GetFeed(c *gin.Context) {
	feed, err := h.service.GetFeed(c.Request.Context())
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), err)
		c.JSON(http.StatusOK, gin.H{"posts": []*domain.Post{}, "degraded": true})
		return
	}
	c.JSON(http.StatusOK, feed)
}

// ListEvents returns every ticketed event
func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.service.GetAllEvents(c.Request.Context())
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), err)
		c.JSON(http.StatusOK, gin.H{"events": []*domain.TicketedEvent{}, "degraded": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GetEvent returns one ticketed event by ID
func (h *Handler) GetEvent(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	event, err := h.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// createEventRequest is the event creation payload
type createEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Schedule    time.Time `json:"schedule"`
	Location    string    `json:"location"`
	Capacity    uint64    `json:"capacity"`
	MaxTickets  uint64    `json:"max_tickets" binding:"required"`
	Price       string    `json:"price"`
}

// CreateEvent submits an event creation write
func (h *Handler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Validation failed", err.Error())
		return
	}

	params := social.CreateEventParams{
		Metadata: domain.EventMetadata{
			Title:       req.Title,
			Description: req.Description,
			Schedule:    req.Schedule,
			Location:    req.Location,
			Capacity:    req.Capacity,
		},
		MaxTickets: req.MaxTickets,
	}
	if req.Price != "" {
		price, err := domain.ParseAmount(req.Price)
		if err != nil {
			respondBadRequest(c, "Invalid price", err.Error())
			return
		}
		params.Price = price
	}

	result, err := h.service.CreateTicketedEvent(c.Request.Context(), h.session, params)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// BuyTicket purchases one ticket for an event
func (h *Handler) BuyTicket(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	result, err := h.service.BuyTicket(c.Request.Context(), h.session, id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetProfile resolves an address to its profile
func (h *Handler) GetProfile(c *gin.Context) {
	address, ok := parseAddress(c, c.Param("address"), "address")
	if !ok {
		return
	}
	profile, err := h.service.GetProfile(c.Request.Context(), address)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetUsername reports whether a username is already registered
func (h *Handler) GetUsername(c *gin.Context) {
	username := c.Param("username")
	taken, err := h.service.UsernameTaken(c.Request.Context(), username)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": username, "taken": taken})
}

// registerProfileRequest is the profile registration payload
type registerProfileRequest struct {
	Username    string            `json:"username" binding:"required"`
	Name        string            `json:"name"`
	Bio         string            `json:"bio"`
	Avatar      string            `json:"avatar"`
	SocialLinks map[string]string `json:"social_links"`
}

// RegisterProfile mints a profile token for the server's session
func (h *Handler) RegisterProfile(c *gin.Context) {
	var req registerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Validation failed", err.Error())
		return
	}

	result, err := h.service.RegisterProfile(c.Request.Context(), h.session, req.Username, domain.ProfileMetadata{
		Name:        req.Name,
		Bio:         req.Bio,
		Avatar:      req.Avatar,
		SocialLinks: req.SocialLinks,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetRoleGrant answers whether an address holds a role
func (h *Handler) GetRoleGrant(c *gin.Context) {
	address, ok := parseAddress(c, c.Param("address"), "address")
	if !ok {
		return
	}
	role := domain.Role(c.DefaultQuery("role", string(domain.RoleOrganizer)))

	grant, err := h.service.GetRoleGrant(c.Request.Context(), address, role)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, grant)
}

func parseIDParam(c *gin.Context) (uint64, bool) {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil || id == 0 {
		if err == nil {
			err = errors.New("zero is not a valid identifier")
		}
		respondBadRequest(c, "Invalid identifier", err.Error())
		return 0, false
	}
	return id, true
}

func parseAddress(c *gin.Context, raw string, field string) (common.Address, bool) {
	if !common.IsHexAddress(raw) {
		respondBadRequest(c, "Invalid "+field, raw)
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func parseAddressQuery(c *gin.Context, key string) (common.Address, bool) {
	return parseAddress(c, c.Query(key), key)
}
