// README: Catalog handlers for shops and product configuration.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"souq/internal/http/middleware"
	"souq/internal/modules/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Service
}

func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

type createShopReq struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Currency    string  `json:"currency"`
	DeliveryFee int64   `json:"delivery_fee"`
	VATPercent  float64 `json:"vat_percent"`
	OpensAt     int     `json:"opens_at"`
	ClosesAt    int     `json:"closes_at"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

type shopResp struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	IsActive    bool    `json:"is_active"`
	IsOpen      bool    `json:"is_open"`
	Currency    string  `json:"currency"`
	DeliveryFee int64   `json:"delivery_fee"`
	VATPercent  float64 `json:"vat_percent"`
	OpensAt     int     `json:"opens_at"`
	ClosesAt    int     `json:"closes_at"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

func toShopResp(s *catalog.Shop) shopResp {
	return shopResp{
		ID:          s.ID.String(),
		Name:        s.Name,
		Slug:        s.Slug,
		Type:        string(s.Type),
		Description: s.Description,
		IsActive:    s.IsActive,
		IsOpen:      s.IsOpen,
		Currency:    s.Currency,
		DeliveryFee: s.DeliveryFee,
		VATPercent:  s.VATPercent,
		OpensAt:     s.OpensAt,
		ClosesAt:    s.ClosesAt,
		Lat:         s.Location.Lat,
		Lng:         s.Location.Lng,
	}
}

func (h *CatalogHandler) CreateShop(c *gin.Context) {
	var req createShopReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	shop, err := h.catalog.CreateShop(c.Request.Context(), catalog.CreateShopCommand{
		OwnerID:     middleware.CallerID(c),
		Name:        req.Name,
		Type:        catalog.ShopType(req.Type),
		Description: req.Description,
		Currency:    req.Currency,
		DeliveryFee: req.DeliveryFee,
		VATPercent:  req.VATPercent,
		OpensAt:     req.OpensAt,
		ClosesAt:    req.ClosesAt,
		Lat:         req.Lat,
		Lng:         req.Lng,
	})
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toShopResp(shop))
}

func (h *CatalogHandler) GetShop(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	shop, err := h.catalog.GetShop(c.Request.Context(), id)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, toShopResp(shop))
}

type addOnReq struct {
	Title      string `json:"title"`
	AddedPrice int64  `json:"added_price"`
}

type optionReq struct {
	Title string `json:"title"`
	Price int64  `json:"price"`
}

type optionGroupReq struct {
	Title        string      `json:"title"`
	ChangesPrice bool        `json:"changes_price"`
	RelyOnGroup  *int        `json:"rely_on_group"`
	RelyOnOption *int        `json:"rely_on_option"`
	Options      []optionReq `json:"options"`
}

type createProductReq struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       int64            `json:"price"`
	AddOns      []addOnReq       `json:"add_ons"`
	Groups      []optionGroupReq `json:"option_groups"`
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	shopID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req createProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cmd := catalog.CreateProductCommand{
		ShopID:      shopID,
		OwnerID:     middleware.CallerID(c),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	}
	for _, a := range req.AddOns {
		cmd.AddOns = append(cmd.AddOns, catalog.AddOnSpec{Title: a.Title, AddedPrice: a.AddedPrice})
	}
	for _, g := range req.Groups {
		spec := catalog.OptionGroupSpec{
			Title:        g.Title,
			ChangesPrice: g.ChangesPrice,
			RelyOnGroup:  -1,
			RelyOnOption: -1,
		}
		if g.RelyOnGroup != nil {
			spec.RelyOnGroup = *g.RelyOnGroup
		}
		if g.RelyOnOption != nil {
			spec.RelyOnOption = *g.RelyOnOption
		}
		for _, o := range g.Options {
			spec.Options = append(spec.Options, catalog.OptionSpec{Title: o.Title, Price: o.Price})
		}
		cmd.Groups = append(cmd.Groups, spec)
	}

	p, err := h.catalog.CreateProduct(c.Request.Context(), cmd)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResp(p))
}

type productResp struct {
	ID          string            `json:"id"`
	ShopID      string            `json:"shop_id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Price       int64             `json:"price"`
	IsAvailable bool              `json:"is_available"`
	NumSold     int64             `json:"num_sold"`
	AddOns      []addOnResp       `json:"add_ons"`
	Groups      []optionGroupResp `json:"option_groups"`
}

type addOnResp struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	AddedPrice int64  `json:"added_price"`
}

type optionGroupResp struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	ChangesPrice bool         `json:"changes_price"`
	RelyOnGroup  string       `json:"rely_on_group,omitempty"`
	RelyOnOption string       `json:"rely_on_option,omitempty"`
	Options      []optionResp `json:"options"`
}

type optionResp struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price int64  `json:"price"`
}

func toProductResp(p *catalog.Product) productResp {
	resp := productResp{
		ID:          p.ID.String(),
		ShopID:      p.ShopID.String(),
		Title:       p.Title,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		IsAvailable: p.IsAvailable,
		NumSold:     p.NumSold,
		AddOns:      []addOnResp{},
		Groups:      []optionGroupResp{},
	}
	for _, a := range p.AddOns {
		resp.AddOns = append(resp.AddOns, addOnResp{ID: a.ID.String(), Title: a.Title, AddedPrice: a.AddedPrice})
	}
	for _, g := range p.OptionGroups {
		gr := optionGroupResp{
			ID:           g.ID.String(),
			Title:        g.Title,
			ChangesPrice: g.ChangesPrice,
			Options:      []optionResp{},
		}
		if g.RelyOn != nil {
			gr.RelyOnGroup = g.RelyOn.GroupID.String()
			gr.RelyOnOption = g.RelyOn.OptionID.String()
		}
		for _, o := range g.Options {
			gr.Options = append(gr.Options, optionResp{ID: o.ID.String(), Title: o.Title, Price: o.Price})
		}
		resp.Groups = append(resp.Groups, gr)
	}
	return resp
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	shopID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	products, err := h.catalog.ListProducts(c.Request.Context(), shopID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	out := make([]productResp, 0, len(products))
	for i := range products {
		out = append(out, toProductResp(&products[i]))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResp(p))
}
