package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/salesdesk/backoffice/internal/core/query"
)

// clientFilter translates f into a clients collection query.
func clientFilter(f query.ClientFilter) bson.D {
	q := bson.D{}

	if r := dateRange(f.BirthDate); r != nil {
		q = append(q, bson.E{Key: "data_nascimento", Value: r})
	}
	if r := dateRange(f.CreatedAt); r != nil {
		q = append(q, bson.E{Key: "created_at", Value: r})
	}
	if f.TaxID != "" {
		q = append(q, bson.E{Key: "cpf", Value: contains(f.TaxID, false)})
	}
	if f.Name != "" {
		q = append(q, bson.E{Key: "nome", Value: contains(f.Name, true)})
	}
	if f.Status != "" {
		q = append(q, bson.E{Key: "status", Value: f.Status})
	}
	if f.Bank != "" {
		if f.BankExact {
			q = append(q, bson.E{Key: "banco", Value: f.Bank})
		} else {
			q = append(q, bson.E{Key: "banco", Value: contains(f.Bank, true)})
		}
	}
	if f.Phone != "" {
		q = append(q, bson.E{Key: "telefone", Value: contains(f.Phone, false)})
	}
	if f.ByOwner {
		q = append(q, bson.E{Key: "user_id", Value: f.OwnerID})
	}
	return q
}

func dateRange(r query.DateRange) bson.D {
	var d bson.D
	if !r.From.IsZero() {
		d = append(d, bson.E{Key: "$gte", Value: r.From})
	}
	if !r.To.IsZero() {
		d = append(d, bson.E{Key: "$lte", Value: r.To})
	}
	return d
}

func contains(s string, fold bool) primitive.Regex {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(s)}
	if fold {
		re.Options = "i"
	}
	return re
}
