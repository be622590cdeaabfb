package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"zone-service/internal/geo"
	"zone-service/internal/http/middleware"
	"zone-service/internal/model"
	"zone-service/internal/repository"
	"zone-service/internal/service"
)

type Handler struct {
	areaService     *service.AreaService
	cellService     *service.CellService
	approvalService *service.ApprovalService
	zoneService     *service.ZoneService
	log             zerolog.Logger
}

func NewHandler(
	areaService *service.AreaService,
	cellService *service.CellService,
	approvalService *service.ApprovalService,
	zoneService *service.ZoneService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		areaService:     areaService,
		cellService:     cellService,
		approvalService: approvalService,
		zoneService:     zoneService,
		log:             log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Public read surface consumed by the map UI.
	zones := r.Group("/zones")
	{
		zones.GET("", h.listZones)
		zones.GET("/:id", h.getZoneDetail)
	}

	protected := r.Group("/")
	protected.Use(authMiddleware)

	admin := protected.Group("/admin")
	{
		admin.POST("/areas", h.createArea)
		admin.GET("/areas", h.listAreas)
		admin.GET("/areas/:id", h.getArea)
		admin.PUT("/areas/:id", h.updateArea)
		admin.DELETE("/areas/:id", h.deleteArea)

		admin.POST("/cells", h.createCell)
		admin.GET("/cells", h.listCells)
		admin.GET("/cells/:id", h.getCell)
		admin.PUT("/cells/:id", h.updateCell)
		admin.DELETE("/cells/:id", h.deleteCell)

		admin.GET("/approvals", h.listPendingApprovals)
		admin.GET("/approvals/:id", h.getApproval)
		admin.POST("/approvals/:id/approve", h.approve)
		admin.POST("/approvals/:id/reject", h.reject)
	}

	seller := protected.Group("/seller")
	{
		seller.GET("/cells", h.listMyCells)
		seller.POST("/approvals", h.submitApproval)
	}
}

// Area handlers

func (h *Handler) createArea(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "missing principal"))
		return
	}

	var req struct {
		Name        string      `json:"name" binding:"required"`
		Polygon     geo.Polygon `json:"polygon" binding:"required"`
		Status      *string     `json:"status"`
		MaxCapacity *int        `json:"max_capacity"`
		Notice      *string     `json:"notice"`
		RegionID    *string     `json:"region_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", err.Error()))
		return
	}

	regionID, ok := parseOptionalUUID(c, req.RegionID, "region_id")
	if !ok {
		return
	}

	area, err := h.areaService.Create(c.Request.Context(), principal, service.CreateAreaInput{
		Name:        req.Name,
		Polygon:     req.Polygon,
		Status:      areaStatusPtr(req.Status),
		MaxCapacity: req.MaxCapacity,
		Notice:      req.Notice,
		RegionID:    regionID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(area))
}

func (h *Handler) updateArea(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "missing principal"))
		return
	}

	id, ok := parsePathUUID(c, "id", "area id")
	if !ok {
		return
	}

	var req struct {
		Name        *string     `json:"name"`
		Polygon     geo.Polygon `json:"polygon"`
		Status      *string     `json:"status"`
		MaxCapacity *int        `json:"max_capacity"`
		Notice      *string     `json:"notice"`
		RegionID    *string     `json:"region_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", err.Error()))
		return
	}

	regionID, ok := parseOptionalUUID(c, req.RegionID, "region_id")
	if !ok {
		return
	}

	area, err := h.areaService.Update(c.Request.Context(), principal, id, service.UpdateAreaInput{
		Name:        req.Name,
		Polygon:     req.Polygon,
		Status:      areaStatusPtr(req.Status),
		MaxCapacity: req.MaxCapacity,
		Notice:      req.Notice,
		RegionID:    regionID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(area))
}

func (h *Handler) getArea(c *gin.Context) {
	id, ok := parsePathUUID(c, "id", "area id")
	if !ok {
		return
	}

	area, err := h.areaService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(area))
}

func (h *Handler) listAreas(c *gin.Context) {
	filter := repository.AreaListFilter{}
	if keyword := strings.TrimSpace(c.Query("keyword")); keyword != "" {
		filter.Keyword = &keyword
	}

	page, size := pageParams(c)
	areas, err := h.areaService.List(c.Request.Context(), filter, page, size)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(areas))
}

func (h *Handler) deleteArea(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "missing principal"))
		return
	}

	id, ok := parsePathUUID(c, "id", "area id")
	if !ok {
		return
	}

	if err := h.zoneService.DeleteAreaCascade(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Cell handlers

func (h *Handler) createCell(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "missing principal"))
		return
	}

	var req struct {
		AreaID          string   `json:"area_id" binding:"required"`
		OwnerID         string   `json:"owner_id" binding:"required"`
		Lat             *float64 `json:"lat" binding:"required"`
		Lng             *float64 `json:"lng" binding:"required"`
		Label           *string  `json:"label"`
		DetailedAddress *string  `json:"detailed_address"`
		Status          *string  `json:"status"`
		MaxCapacity     *int     `json:"max_capacity"`
		Notice          *string  `json:"notice"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", err.Error()))
		return
	}

	areaID, err := uuid.Parse(req.AreaID)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", "invalid area_id"))
		return
	}
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", "invalid owner_id"))
		return
	}

	cell, err := h.cellService.Create(c.Request.Context(), principal, service.CreateCellInput{
		AreaID:          areaID,
		OwnerID:         ownerID,
		Point:           geo.Point{Lat: *req.Lat, Lng: *req.Lng},
		Label:           req.Label,
		DetailedAddress: req.DetailedAddress,
		Status:          cellStatusPtr(req.Status),
		MaxCapacity:     req.MaxCapacity,
		Notice:          req.Notice,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(cell))
}

func (h *Handler) updateCell(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "missing principal"))
		return
	}

	id, ok := parsePathUUID(c, "id", "cell id")
	if !ok {
		return
	}

	var req struct {
		AreaID          *string  `json:"area_id"`
		OwnerID         *string  `json:"owner_id"`
		Lat             *float64 `json:"lat"`
		Lng             *float64 `json:"lng"`
		Label           *string  `json:"label"`
		DetailedAddress *string  `json:"detailed_address"`
		Status          *string  `json:"status"`
		MaxCapacity     *int     `json:"max_capacity"`
		Notice          *string  `json:"notice"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", err.Error()))
		return
	}

	if (req.Lat == nil) != (req.Lng == nil) {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", "lat and lng must be supplied together"))
		return
	}

	areaID, ok := parseOptionalUUID(c, req.AreaID, "area_id")
	if !ok {
		return
	}
	ownerID, ok := parseOptionalUUID(c, req.OwnerID, "owner_id")
	if !ok {
		return
	}

	input := service.UpdateCellInput{
		AreaID:          areaID,
		OwnerID:         ownerID,
		Label:           req.Label,
		DetailedAddress: req.DetailedAddress,
		Status:          cellStatusPtr(req.Status),
		MaxCapacity:     req.MaxCapacity,
		Notice:          req.Notice,
	}
	if req.Lat != nil {
		input.Point = &geo.Point{Lat: *req.Lat, Lng: *req.Lng}
	}

	cell, err := h.cellService.Update(c.Request.Context(), principal, id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(cell))
}

func (h *Handler) getCell(c *gin.Context) {
	id, ok := parsePathUUID(c, "id", "cell id")
	if !ok {
		return
	}

	cell, err := h.cellService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(cell))
}

func (h *Handler) listCells(c *gin.Context) {
	filter := repository.CellListFilter{}

	if raw := strings.TrimSpace(c.Query("area_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", "invalid area_id"))
			return
		}
		filter.AreaID = &id
	}
	if raw := strings.TrimSpace(c.Query("owner_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", "invalid owner_id"))
			return
		}
		filter.OwnerID = &id
	}
	filter.Status = cellStatusPtr(queryPtr(c, "status"))

	page, size := pageParams(c)
	cells, err := h.cellService.List(c.Request.Context(), filter, page, size)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(cells))
}

func (h *Handler) deleteCell(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "missing principal"))
		return
	}

	id, ok := parsePathUUID(c, "id", "cell id")
	if !ok {
		return
	}

	if err := h.cellService.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) listMyCells(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "missing principal"))
		return
	}

	page, size := pageParams(c)
	cells, err := h.cellService.ListOwned(c.Request.Context(), principal, cellStatusPtr(queryPtr(c, "status")), page, size)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(cells))
}

// Approval handlers

func (h *Handler) submitApproval(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "missing principal"))
		return
	}

	var req struct {
		TargetType string `json:"target_type" binding:"required"`
		TargetID   string `json:"target_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", err.Error()))
		return
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", "invalid target_id"))
		return
	}

	record, err := h.approvalService.Submit(c.Request.Context(), principal, service.SubmitApprovalInput{
		TargetType: model.ApprovalTargetType(strings.ToUpper(req.TargetType)),
		TargetID:   targetID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(record))
}

func (h *Handler) listPendingApprovals(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "missing principal"))
		return
	}

	page, size := pageParams(c)
	records, err := h.approvalService.ListPending(c.Request.Context(), principal, page, size)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(records))
}

func (h *Handler) getApproval(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "missing principal"))
		return
	}

	id, ok := parsePathUUID(c, "id", "approval id")
	if !ok {
		return
	}

	record, err := h.approvalService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(record))
}

func (h *Handler) approve(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "missing principal"))
		return
	}

	id, ok := parsePathUUID(c, "id", "approval id")
	if !ok {
		return
	}

	// Approvals may carry an optional reason; an empty body is fine.
	var req struct {
		Reason *string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", err.Error()))
		return
	}

	record, err := h.approvalService.Approve(c.Request.Context(), principal, id, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.reflectDecision(c, record)
}

func (h *Handler) reject(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("UNAUTHORIZED", "missing principal"))
		return
	}

	id, ok := parsePathUUID(c, "id", "approval id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", err.Error()))
		return
	}

	record, err := h.approvalService.Reject(c.Request.Context(), principal, id, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.reflectDecision(c, record)
}

// reflectDecision pushes the decided record onto its target. The decision
// itself is already committed; a failed write-through is reported in the
// response instead of rolling anything back.
func (h *Handler) reflectDecision(c *gin.Context, record *model.ApprovalRecord) {
	targetUpdated := true
	if err := h.zoneService.OnApprovalDecided(c.Request.Context(), record); err != nil {
		targetUpdated = false
		h.log.Warn().Err(err).
			Str("record_id", record.ID.String()).
			Msg("approval decided but target status not updated")
	}

	c.JSON(http.StatusOK, gin.H{
		"data":           record,
		"target_updated": targetUpdated,
	})
}

// Zone handlers (public)

func (h *Handler) listZones(c *gin.Context) {
	filter := repository.AreaListFilter{ExcludeHidden: true}
	if keyword := strings.TrimSpace(c.Query("keyword")); keyword != "" {
		filter.Keyword = &keyword
	}

	page, size := pageParams(c)
	areas, err := h.areaService.List(c.Request.Context(), filter, page, size)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(areas))
}

func (h *Handler) getZoneDetail(c *gin.Context) {
	id, ok := parsePathUUID(c, "id", "zone id")
	if !ok {
		return
	}

	detail, err := h.zoneService.GetAreaWithCells(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(detail))
}

// Helpers

func (h *Handler) handleError(c *gin.Context, err error) {
	var cascadeErr *service.PartialCascadeError
	if errors.As(err, &cascadeErr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":             string(service.KindPartialCascade),
				"message":          cascadeErr.Error(),
				"deleted_cell_ids": cascadeErr.DeletedCellIDs,
				"failed_cell_id":   cascadeErr.FailedCellID,
			},
		})
		return
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		status := http.StatusInternalServerError
		switch svcErr.Kind {
		case service.KindNotFound:
			status = http.StatusNotFound
		case service.KindInvalidInput, service.KindInvalidGeometry, service.KindOutsideArea:
			status = http.StatusBadRequest
		case service.KindImmutableField, service.KindDuplicatePending,
			service.KindAlreadyDecided, service.KindAreaUnavailable:
			status = http.StatusConflict
		case service.KindPermissionDenied:
			status = http.StatusForbidden
		}
		c.JSON(status, errorResponse(string(svcErr.Kind), svcErr.Error()))
		return
	}

	h.log.Error().Err(err).Msg("handler error")
	c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL", "internal error"))
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

func parsePathUUID(c *gin.Context, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(param)))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", "invalid "+label))
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalUUID(c *gin.Context, raw *string, label string) (*uuid.UUID, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, true
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_INPUT", "invalid "+label))
		return nil, false
	}
	return &id, true
}

func pageParams(c *gin.Context) (page, size int) {
	page = intQuery(c, "page", 0)
	size = intQuery(c, "size", 20)
	return page, size
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value := 0
	for _, ch := range raw {
		if ch < '0' || ch > '9' {
			return fallback
		}
		value = value*10 + int(ch-'0')
	}
	return value
}

func queryPtr(c *gin.Context, key string) *string {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	return &raw
}

func areaStatusPtr(raw *string) *model.AreaStatus {
	if raw == nil || *raw == "" {
		return nil
	}
	status := model.AreaStatus(strings.ToUpper(strings.TrimSpace(*raw)))
	return &status
}

func cellStatusPtr(raw *string) *model.CellStatus {
	if raw == nil || *raw == "" {
		return nil
	}
	status := model.CellStatus(strings.ToUpper(strings.TrimSpace(*raw)))
	return &status
}
