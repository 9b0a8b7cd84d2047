package handler

import (
	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toClientRef(ref *domain.ClientRef) *clientRefResponse {
	if ref == nil {
		return nil
	}
	return &clientRefResponse{ID: ref.ID, Name: ref.Name, TaxID: ref.TaxID, UserID: ref.OwnerID}
}

func toContractResponse(ct *domain.Contract) contractResponse {
	return contractResponse{
		ID:           ct.ID,
		ClientID:     ct.ClientID,
		Date:         domain.CalendarDay(ct.Date),
		Value:        ct.Value,
		Installments: ct.Installments,
		InterestRate: ct.InterestRate,
		CreatedAt:    ct.CreatedAt,
		Client:       toClientRef(ct.Client),
	}
}

func toContractResponses(contracts []*domain.Contract) []contractResponse {
	out := make([]contractResponse, 0, len(contracts))
	for _, ct := range contracts {
		out = append(out, toContractResponse(ct))
	}
	return out
}

func toClientResponse(cl *domain.Client) clientResponse {
	resp := clientResponse{
		ID:             cl.ID,
		TaxID:          cl.TaxID,
		Name:           cl.Name,
		BirthDate:      domain.CalendarDay(cl.BirthDate),
		AvailableValue: cl.AvailableValue,
		Status:         cl.Status,
		Phone:          cl.Phone,
		Bank:           cl.Bank,
		Description:    cl.Description,
		UserID:         cl.OwnerID,
		CreatedAt:      cl.CreatedAt,
		UpdatedAt:      cl.UpdatedAt,
		Contracts:      make([]contractResponse, 0, len(cl.Contracts)),
	}
	if cl.OwnerEmail != "" {
		resp.User = &ownerResponse{Email: cl.OwnerEmail}
	}
	for i := range cl.Contracts {
		resp.Contracts = append(resp.Contracts, toContractResponse(&cl.Contracts[i]))
	}
	return resp
}

func toClientPageResponse(p *ports.ClientPage) clientPageResponse {
	resp := clientPageResponse{
		Data:       make([]clientResponse, 0, len(p.Items)),
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}
	for _, cl := range p.Items {
		resp.Data = append(resp.Data, toClientResponse(cl))
	}
	if p.Users != nil {
		resp.Users = toUserResponses(p.Users)
	}
	return resp
}

func toHistoryResponse(h *domain.HistoryEntry) historyResponse {
	return historyResponse{
		ID:        h.ID,
		ClientID:  h.ClientID,
		Field:     h.Field,
		OldValue:  h.OldValue,
		NewValue:  h.NewValue,
		UserID:    h.UserID,
		CreatedAt: h.CreatedAt,
		User:      ownerResponse{Email: h.UserEmail},
		Client:    toClientRef(h.Client),
	}
}
