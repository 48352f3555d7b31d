// README: Account handlers for registration, login and saved addresses.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"souq/internal/http/middleware"
	"souq/internal/modules/account"
	"souq/internal/types"
)

type AccountHandler struct {
	accounts *account.Service
}

func NewAccountHandler(svc *account.Service) *AccountHandler {
	return &AccountHandler{accounts: svc}
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

type accountResp struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
}

func toAccountResp(a *account.Account) accountResp {
	return accountResp{
		ID:    a.ID.String(),
		Name:  a.Name,
		Email: a.Email,
		Role:  string(a.Role),
		Phone: a.Phone,
	}
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	a, err := h.accounts.Register(c.Request.Context(), account.RegisterCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     account.Role(req.Role),
		Phone:    req.Phone,
	})
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAccountResp(a))
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	a, token, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "account": toAccountResp(a)})
}

func (h *AccountHandler) Me(c *gin.Context) {
	a, err := h.accounts.Get(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAccountResp(a))
}

type addressReq struct {
	Title        string  `json:"title"`
	Area         string  `json:"area"`
	Type         string  `json:"type"`
	Street       string  `json:"street"`
	Building     string  `json:"building"`
	Floor        int     `json:"floor"`
	ApartmentNo  int     `json:"apartment_no"`
	SpecialNotes string  `json:"special_notes"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

type addressResp struct {
	ID string `json:"id"`
	addressReq
}

func toAddressResp(a *account.SavedAddress) addressResp {
	return addressResp{
		ID: a.ID.String(),
		addressReq: addressReq{
			Title:        a.Title,
			Area:         a.Area,
			Type:         a.Type,
			Street:       a.Street,
			Building:     a.Building,
			Floor:        a.Floor,
			ApartmentNo:  a.ApartmentNo,
			SpecialNotes: a.SpecialNotes,
			Lat:          a.Location.Lat,
			Lng:          a.Location.Lng,
		},
	}
}

func (h *AccountHandler) AddAddress(c *gin.Context) {
	var req addressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	addr, err := h.accounts.AddAddress(c.Request.Context(), account.AddressCommand{
		AccountID:    middleware.CallerID(c),
		Title:        req.Title,
		Area:         req.Area,
		Type:         req.Type,
		Street:       req.Street,
		Building:     req.Building,
		Floor:        req.Floor,
		ApartmentNo:  req.ApartmentNo,
		SpecialNotes: req.SpecialNotes,
		Location:     types.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAddressResp(addr))
}

func (h *AccountHandler) UpdateAddress(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req addressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	addr, err := h.accounts.UpdateAddress(c.Request.Context(), id, account.AddressCommand{
		AccountID:    middleware.CallerID(c),
		Title:        req.Title,
		Area:         req.Area,
		Type:         req.Type,
		Street:       req.Street,
		Building:     req.Building,
		Floor:        req.Floor,
		ApartmentNo:  req.ApartmentNo,
		SpecialNotes: req.SpecialNotes,
		Location:     types.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAddressResp(addr))
}

func (h *AccountHandler) ListAddresses(c *gin.Context) {
	list, err := h.accounts.ListAddresses(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		writeAccountError(c, err)
		return
	}
	out := make([]addressResp, 0, len(list))
	for i := range list {
		out = append(out, toAddressResp(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"addresses": out})
}

func (h *AccountHandler) DeleteAddress(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.DeleteAddress(c.Request.Context(), middleware.CallerID(c), id); err != nil {
		writeAccountError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
