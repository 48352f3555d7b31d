// README: Order handlers; creation, reads and driver status updates.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"souq/internal/http/middleware"
	"souq/internal/modules/account"
	"souq/internal/modules/order"
	"souq/internal/types"
)

type OrderHandler struct {
	orders   *order.Service
	accounts *account.Service
}

func NewOrderHandler(orders *order.Service, accounts *account.Service) *OrderHandler {
	return &OrderHandler{orders: orders, accounts: accounts}
}

type choiceReq struct {
	OptionGroupID string `json:"option_group_id"`
	OptionID      string `json:"option_id"`
}

type orderItemReq struct {
	ProductID      string      `json:"product_id"`
	Quantity       int         `json:"quantity"`
	AddOnIDs       []string    `json:"add_on_ids"`
	Choices        []choiceReq `json:"choices"`
	SpecialRequest string      `json:"special_request"`
}

type createOrderReq struct {
	// AddressID selects a saved address; Address supplies one inline.
	// Exactly one of the two must be present.
	AddressID string          `json:"address_id"`
	Address   *orderAddresReq `json:"address"`
	Items     []orderItemReq  `json:"items"`
}

type orderAddresReq struct {
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

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	callerID := middleware.CallerID(c)
	addr, ok := h.resolveAddress(c, callerID, &req)
	if !ok {
		return
	}

	cmd := order.CreateCommand{UserID: callerID, Address: addr}
	for _, it := range req.Items {
		item, err := toItemRequest(it)
		if err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		cmd.Items = append(cmd.Items, item)
	}

	o, err := h.orders.Create(c.Request.Context(), cmd)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResp(o))
}

// resolveAddress turns either a saved-address reference or an inline address
// into the snapshot the order will freeze.
func (h *OrderHandler) resolveAddress(c *gin.Context, callerID uuid.UUID, req *createOrderReq) (order.Address, bool) {
	if req.AddressID != "" && req.Address != nil {
		writeError(c, http.StatusBadRequest, "provide address_id or address, not both")
		return order.Address{}, false
	}

	if req.AddressID != "" {
		id, err := uuid.Parse(req.AddressID)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid address_id")
			return order.Address{}, false
		}
		saved, err := h.accounts.GetAddress(c.Request.Context(), callerID, id)
		if err != nil {
			writeAccountError(c, err)
			return order.Address{}, false
		}
		return order.Address{
			Area:         saved.Area,
			Type:         saved.Type,
			Street:       saved.Street,
			Building:     saved.Building,
			Floor:        saved.Floor,
			ApartmentNo:  saved.ApartmentNo,
			SpecialNotes: saved.SpecialNotes,
			Location:     saved.Location,
		}, true
	}

	if req.Address == nil {
		writeError(c, http.StatusBadRequest, "missing shipping address")
		return order.Address{}, false
	}
	a := req.Address
	return order.Address{
		Area:         a.Area,
		Type:         a.Type,
		Street:       a.Street,
		Building:     a.Building,
		Floor:        a.Floor,
		ApartmentNo:  a.ApartmentNo,
		SpecialNotes: a.SpecialNotes,
		Location:     types.Point{Lat: a.Lat, Lng: a.Lng},
	}, true
}

func toItemRequest(it orderItemReq) (order.ItemRequest, error) {
	productID, err := uuid.Parse(it.ProductID)
	if err != nil {
		return order.ItemRequest{}, order.ErrBadRequest
	}
	item := order.ItemRequest{
		ProductID:      productID,
		Quantity:       it.Quantity,
		SpecialRequest: it.SpecialRequest,
	}
	for _, raw := range it.AddOnIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return order.ItemRequest{}, order.ErrBadRequest
		}
		item.AddOnIDs = append(item.AddOnIDs, id)
	}
	for _, ch := range it.Choices {
		groupID, err := uuid.Parse(ch.OptionGroupID)
		if err != nil {
			return order.ItemRequest{}, order.ErrBadRequest
		}
		optionID, err := uuid.Parse(ch.OptionID)
		if err != nil {
			return order.ItemRequest{}, order.ErrBadRequest
		}
		item.Choices = append(item.Choices, order.ChoiceRequest{OptionGroupID: groupID, OptionID: optionID})
	}
	return item, nil
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	if !h.canRead(c, o) {
		writeError(c, http.StatusForbidden, "not a participant of this order")
		return
	}
	c.JSON(http.StatusOK, toOrderResp(o))
}

// canRead limits order reads to its participants: the customer, the
// assigned driver, owners of shops in the order, and admins.
func (h *OrderHandler) canRead(c *gin.Context, o *order.Order) bool {
	callerID := middleware.CallerID(c)
	switch middleware.CallerRole(c) {
	case account.RoleAdmin:
		return true
	case account.RoleCustomer:
		return o.UserID != nil && *o.UserID == callerID
	case account.RoleDriver:
		return o.DriverID != nil && *o.DriverID == callerID
	case account.RoleShopOwner:
		ok, err := h.orders.IsShopParticipant(c.Request.Context(), o.ID, callerID)
		return err == nil && ok
	}
	return false
}

// List returns the caller's orders, scoped by role.
func (h *OrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	callerID := middleware.CallerID(c)

	var (
		list []order.Order
		err  error
	)
	switch middleware.CallerRole(c) {
	case account.RoleAdmin:
		list, err = h.orders.ListAll(ctx)
	case account.RoleDriver:
		list, err = h.orders.ListForDriver(ctx, callerID)
	case account.RoleShopOwner:
		list, err = h.orders.ListForShopOwner(ctx, callerID)
	default:
		list, err = h.orders.ListForUser(ctx, callerID)
	}
	if err != nil {
		writeOrderError(c, err)
		return
	}

	out := make([]orderResp, 0, len(list))
	for i := range list {
		out = append(out, toOrderResp(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	o, err := h.orders.Transition(c.Request.Context(), order.TransitionCommand{
		OrderID:   id,
		DriverID:  middleware.CallerID(c),
		NewStatus: order.Status(req.Status),
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResp(o))
}

type orderResp struct {
	ID          string           `json:"id"`
	Status      string           `json:"status"`
	Subtotal    int64            `json:"subtotal"`
	VAT         int64            `json:"vat"`
	DeliveryFee int64            `json:"delivery_fee"`
	FinalPrice  int64            `json:"final_price"`
	OrderedAt   string           `json:"ordered_at"`
	DriverID    string           `json:"driver_id,omitempty"`
	Address     order.Address    `json:"address"`
	Groups      []orderGroupResp `json:"groups"`
}

type orderGroupResp struct {
	ID          string          `json:"id"`
	ShopID      string          `json:"shop_id,omitempty"`
	ShopName    string          `json:"shop_name"`
	Currency    string          `json:"currency"`
	DeliveryFee int64           `json:"delivery_fee"`
	Items       []orderItemResp `json:"items"`
}

type orderItemResp struct {
	ID             string            `json:"id"`
	ProductID      string            `json:"product_id,omitempty"`
	ProductTitle   string            `json:"product_title"`
	Quantity       int               `json:"quantity"`
	Price          int64             `json:"price"`
	VAT            int64             `json:"vat"`
	SpecialRequest string            `json:"special_request,omitempty"`
	AddOns         []orderAddOnResp  `json:"add_ons"`
	Choices        []orderChoiceResp `json:"choices"`
}

type orderAddOnResp struct {
	AddOnID    string `json:"add_on_id"`
	Title      string `json:"title"`
	AddedPrice int64  `json:"added_price"`
}

type orderChoiceResp struct {
	OptionGroupID string `json:"option_group_id"`
	GroupTitle    string `json:"group_title"`
	OptionID      string `json:"option_id"`
	OptionTitle   string `json:"option_title"`
}

func toOrderResp(o *order.Order) orderResp {
	resp := orderResp{
		ID:          o.ID.String(),
		Status:      string(o.Status),
		Subtotal:    o.Subtotal,
		VAT:         o.VAT,
		DeliveryFee: o.DeliveryFee,
		FinalPrice:  o.FinalPrice,
		OrderedAt:   o.OrderedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Address:     o.Address,
		Groups:      []orderGroupResp{},
	}
	if o.DriverID != nil {
		resp.DriverID = o.DriverID.String()
	}
	for _, g := range o.Groups {
		gr := orderGroupResp{
			ID:          g.ID.String(),
			ShopName:    g.ShopName,
			Currency:    g.Currency,
			DeliveryFee: g.DeliveryFee,
			Items:       []orderItemResp{},
		}
		if g.ShopID != nil {
			gr.ShopID = g.ShopID.String()
		}
		for _, it := range g.Items {
			ir := orderItemResp{
				ID:             it.ID.String(),
				ProductTitle:   it.ProductTitle,
				Quantity:       it.Quantity,
				Price:          it.Price,
				VAT:            it.VAT,
				SpecialRequest: it.SpecialRequest,
				AddOns:         []orderAddOnResp{},
				Choices:        []orderChoiceResp{},
			}
			if it.ProductID != nil {
				ir.ProductID = it.ProductID.String()
			}
			for _, a := range it.AddOns {
				ir.AddOns = append(ir.AddOns, orderAddOnResp{
					AddOnID:    a.AddOnID.String(),
					Title:      a.Title,
					AddedPrice: a.AddedPrice,
				})
			}
			for _, ch := range it.Choices {
				ir.Choices = append(ir.Choices, orderChoiceResp{
					OptionGroupID: ch.OptionGroupID.String(),
					GroupTitle:    ch.GroupTitle,
					OptionID:      ch.OptionID.String(),
					OptionTitle:   ch.OptionTitle,
				})
			}
			gr.Items = append(gr.Items, ir)
		}
		resp.Groups = append(resp.Groups, gr)
	}
	return resp
}
