package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

type ContractHandler struct {
	contracts ports.ContractService
}

func NewContractHandler(contracts ports.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// List godoc
//
// @Summary      List contracts
// @Description  Salespeople only see contracts of their own clients.
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        clientId  query     int  false  "Restrict to one client"
// @Success      200       {array}   contractResponse
// @Failure      400       {object}  map[string]string
// @Failure      401       {object}  map[string]string
// @Router       /contratos [get]
func (h *ContractHandler) List(c echo.Context) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	clientID, err := queryID(c, "clientId")
	if err != nil {
		return err
	}

	contracts, err := h.contracts.List(c.Request().Context(), identity, clientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toContractResponses(contracts))
}

// Create godoc
//
// @Summary      Create a contract
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createContractRequest  true  "Contract details"
// @Success      201   {object}  contractResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /contratos [post]
func (h *ContractHandler) Create(c echo.Context) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	var req createContractRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	contract, err := h.contracts.Create(c.Request().Context(), identity, *req.contractRequest.input(req.ClientID))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toContractResponse(contract))
}

// Get godoc
//
// @Summary      Get a contract
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Contract ID"
// @Success      200  {object}  contractResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /contratos/{id} [get]
func (h *ContractHandler) Get(c echo.Context) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	contract, err := h.contracts.Get(c.Request().Context(), identity, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toContractResponse(contract))
}

// Update godoc
//
// @Summary      Update a contract
// @Description  At least one field must be provided.
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                    true  "Contract ID"
// @Param        body  body      updateContractRequest  true  "Fields to change"
// @Success      200   {object}  contractResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /contratos/{id} [put]
func (h *ContractHandler) Update(c echo.Context) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateContractRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	patch := req.patch()
	if patch.Empty() {
		return domain.Invalid("", "at least one field must be provided")
	}

	contract, err := h.contracts.Update(c.Request().Context(), identity, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toContractResponse(contract))
}

// Delete godoc
//
// @Summary      Delete a contract
// @Tags         contracts
// @Security     BearerAuth
// @Param        id   path  int  true  "Contract ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /contratos/{id} [delete]
func (h *ContractHandler) Delete(c echo.Context) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.contracts.Delete(c.Request().Context(), identity, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
