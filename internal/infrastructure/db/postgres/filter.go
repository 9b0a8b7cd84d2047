package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/salesdesk/backoffice/internal/core/query"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// clientScope translates f into WHERE clauses on the clients table.
func clientScope(f query.ClientFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !f.BirthDate.From.IsZero() {
			db = db.Where("data_nascimento >= ?", f.BirthDate.From)
		}
		if !f.BirthDate.To.IsZero() {
			db = db.Where("data_nascimento <= ?", f.BirthDate.To)
		}
		if !f.CreatedAt.From.IsZero() {
			db = db.Where("created_at >= ?", f.CreatedAt.From)
		}
		if !f.CreatedAt.To.IsZero() {
			db = db.Where("created_at <= ?", f.CreatedAt.To)
		}
		if f.TaxID != "" {
			db = db.Where("cpf LIKE ?", likePattern(f.TaxID))
		}
		if f.Name != "" {
			db = db.Where("nome ILIKE ?", likePattern(f.Name))
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.Bank != "" {
			if f.BankExact {
				db = db.Where("banco = ?", f.Bank)
			} else {
				db = db.Where("banco ILIKE ?", likePattern(f.Bank))
			}
		}
		if f.Phone != "" {
			db = db.Where("telefone LIKE ?", likePattern(f.Phone))
		}
		if f.ByOwner {
			db = db.Where("user_id = ?", f.OwnerID)
		}
		return db
	}
}
