package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"nodetree/domain/core/valueobjects"
)

func TestObjectID(t *testing.T) {
	valid := bson.NewObjectID()

	oid, ok := objectID(valueobjects.OptionalNodeID(valid.Hex()))
	assert.True(t, ok)
	assert.Equal(t, valid, oid)

	for _, raw := range []string{"", "not-an-id", "4b5f6d0e-4d7e-4f66-9a57-2f0c1d3c6e11"} {
		_, ok := objectID(valueobjects.OptionalNodeID(raw))
		assert.False(t, ok, raw)
	}
}

func TestNodeDocument_ToEntity(t *testing.T) {
	created := time.Date(2024, 2, 3, 4, 5, 6, 7000000, time.UTC)
	parent := bson.NewObjectID()

	root, err := nodeDocument{ID: bson.NewObjectID(), Name: "Docs", CreatedAt: created}.toEntity()
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
	assert.Equal(t, created, root.CreatedAt())

	child, err := nodeDocument{ID: bson.NewObjectID(), Name: "Report", Parent: &parent, CreatedAt: created}.toEntity()
	require.NoError(t, err)
	assert.Equal(t, parent.Hex(), child.Parent().String())
}

func TestNodeDocument_BSONShape(t *testing.T) {
	doc := nodeDocument{ID: bson.NewObjectID(), Name: "Docs", CreatedAt: time.Now()}

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var decoded bson.M
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "parent")
	assert.Nil(t, decoded["parent"])
	assert.Equal(t, "Docs", decoded["name"])
}
