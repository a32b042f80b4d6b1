package models

import (
	"fmt"

	"github.com/anonto42/streamify/backend/internal/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseID parses a hex ObjectID, failing with apperr.ErrInvalidInput
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed id %q", apperr.ErrInvalidInput, id)
	}
	return oid, nil
}
