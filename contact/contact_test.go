package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/klipach/justchat/contract"
	"github.com/klipach/justchat/form"
	"github.com/klipach/justchat/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestShape(t *testing.T) {
	tests := []struct {
		name     string
		records  []map[string]any
		expected []contract.Contact
	}{
		{
			name:     "drops missing email and defaults missing name",
			records:  []map[string]any{{"name": "A"}, {"email": "x@y.com"}},
			expected: []contract.Contact{{Name: "Unknown", Email: "x@y.com"}},
		},
		{
			name: "keeps delivery order",
			records: []map[string]any{
				{"name": "Zed", "email": "z@x.com", "addedAt": int64(2)},
				{"name": "Amy", "email": "a@x.com", "addedAt": int64(1)},
			},
			expected: []contract.Contact{
				{Name: "Zed", Email: "z@x.com", AddedAt: 2},
				{Name: "Amy", Email: "a@x.com", AddedAt: 1},
			},
		},
		{
			name:     "empty",
			records:  nil,
			expected: []contract.Contact{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, Shape(context.Background(), test.records))
		})
	}
}

func TestAdd(t *testing.T) {
	ctrl := gomock.NewController(t)
	contacts := mocks.NewMockContactStore(ctrl)
	ctx := context.Background()
	now = func() time.Time { return time.UnixMilli(1234) }
	defer func() { now = time.Now }()

	t.Run("blank fields never reach the store", func(t *testing.T) {
		contacts.EXPECT().AppendContact(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		require.ErrorIs(t, Add(ctx, contacts, "u1", "  ", "ann@x.com"), form.ErrFieldsRequired)
	})

	t.Run("trims and stamps", func(t *testing.T) {
		contacts.EXPECT().
			AppendContact(ctx, "u1", contract.Contact{Name: "Ann", Email: "ann@x.com", AddedAt: 1234}).
			Return(nil)
		require.NoError(t, Add(ctx, contacts, "u1", " Ann ", "ann@x.com "))
	})

	t.Run("store failure is returned", func(t *testing.T) {
		boom := errors.New("permission denied")
		contacts.EXPECT().AppendContact(ctx, "u1", gomock.Any()).Return(boom)
		require.ErrorIs(t, Add(ctx, contacts, "u1", "Ann", "ann@x.com"), boom)
	})
}
