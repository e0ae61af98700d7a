package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerEmployeeRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type employeeResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func newEmployeeResponse(e *domain.Employee) employeeResponse {
	return employeeResponse{
		ID:        e.ID,
		Name:      e.Name,
		Email:     e.Email,
		Role:      string(e.Role),
		Active:    e.Active,
		CreatedAt: e.CreatedAt,
	}
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(err))
		return
	}
	result, err := s.employees.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"employee":   newEmployeeResponse(result.Employee),
	}})
}

func (s *Server) RegisterEmployee(c *gin.Context) {
	var req registerEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(err))
		return
	}
	employee, err := s.employees.Register(c.Request.Context(), subjectFrom(c), usecase.RegisterEmployeeCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": newEmployeeResponse(employee)})
}

func (s *Server) ListEmployees(c *gin.Context) {
	employees, err := s.employees.List(c.Request.Context(), subjectFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	resp := make([]employeeResponse, 0, len(employees))
	for i := range employees {
		resp = append(resp, newEmployeeResponse(&employees[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateEmployeeRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

func (s *Server) UpdateEmployee(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	var req updateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(err))
		return
	}
	employee, err := s.employees.Update(c.Request.Context(), subjectFrom(c), id, usecase.UpdateEmployeeCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newEmployeeResponse(employee)})
}

// DeactivateEmployee 停用帳號，不刪除資料
func (s *Server) DeactivateEmployee(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	if err := s.employees.Deactivate(c.Request.Context(), subjectFrom(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
