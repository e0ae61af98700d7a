package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
)

// restrictFunc 依身分限制可寫入的欄位，stored 為 nil 表示新增
type restrictFunc[T any] func(subject domain.Subject, stored *T, rec *T)

// restrictLeave 只有管理員可以審核請假
func restrictLeave(subject domain.Subject, stored *domain.Leave, rec *domain.Leave) {
	if subject.IsAdmin() {
		return
	}
	if stored == nil {
		rec.Status = domain.LeaveStatusPending
		return
	}
	rec.Status = stored.Status
}

// recordHandlers 一種資源的 CRUD handler
type recordHandlers[T any, PT domain.RecordPtr[T]] struct {
	svc      *usecase.RecordService[T, PT]
	restrict restrictFunc[T]
}

func registerRecordRoutes[T any, PT domain.RecordPtr[T]](authed, admin *gin.RouterGroup, name string, svc *usecase.RecordService[T, PT], restrict restrictFunc[T]) {
	if svc == nil {
		return
	}
	h := &recordHandlers[T, PT]{svc: svc, restrict: restrict}
	admin.GET("/"+name, h.listAll)
	authed.GET("/"+name+"/mine", h.listMine)
	// 管理員專屬的資源，寫入路由掛在 /admin 底下
	writes := authed
	if svc.AdminManaged() {
		writes = admin
	}
	writes.POST("/"+name, h.create)
	writes.PUT("/"+name+"/:id", h.update)
	writes.DELETE("/"+name+"/:id", h.delete)
}

func (h *recordHandlers[T, PT]) listAll(c *gin.Context) {
	recs, err := h.svc.ListAll(c.Request.Context(), subjectFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recs})
}

func (h *recordHandlers[T, PT]) listMine(c *gin.Context) {
	recs, err := h.svc.ListMine(c.Request.Context(), subjectFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recs})
}

func (h *recordHandlers[T, PT]) create(c *gin.Context) {
	subject := subjectFrom(c)
	rec := new(T)
	if err := c.ShouldBindJSON(rec); err != nil {
		AbortWithError(c, invalidRequestError(err))
		return
	}
	if h.restrict != nil {
		h.restrict(subject, nil, rec)
	}
	created, err := h.svc.Create(c.Request.Context(), subject, rec)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// update 請求內容覆蓋在現有資料上，未提供的欄位保持不變
func (h *recordHandlers[T, PT]) update(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		AbortWithError(c, invalidRequestError(err))
		return
	}
	subject := subjectFrom(c)

	updated, err := h.svc.Update(c.Request.Context(), subject, id, func(rec *T) error {
		stored := *rec
		if err := json.Unmarshal(body, rec); err != nil {
			return invalidRequestError(err)
		}
		if h.restrict != nil {
			h.restrict(subject, &stored, rec)
		}
		return nil
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func (h *recordHandlers[T, PT]) delete(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), subjectFrom(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func recordID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		AbortWithError(c, domain.NewFieldError("id", "id must be a positive integer"))
		return 0, false
	}
	return id, true
}
