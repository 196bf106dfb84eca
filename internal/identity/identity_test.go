package identity

import (
	"errors"
	"testing"

	"github.com/atlasworks/projectfeed/internal/model"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		ctx     Context
		want    model.Actor
		wantErr bool
	}{
		{"employee wins over all", Context{EmployeeID: 3, SalesRepID: 5, UserID: 9}, model.Actor{Kind: model.ActorEmployee, ID: 3}, false},
		{"sales rep over user", Context{SalesRepID: 5, UserID: 9}, model.Actor{Kind: model.ActorSalesRep, ID: 5}, false},
		{"user alone", Context{UserID: 9}, model.Actor{Kind: model.ActorUser, ID: 9}, false},
		{"nothing present", Context{}, model.Actor{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrIdentityUnavailable) {
				t.Fatalf("err=%v want ErrIdentityUnavailable", err)
			}
			if got != tt.want {
				t.Fatalf("got=%+v want=%+v", got, tt.want)
			}
		})
	}
}

func TestResolveOptional(t *testing.T) {
	if got := ResolveOptional(Context{}); !got.Zero() {
		t.Fatalf("got=%+v want zero actor", got)
	}
	if got := ResolveOptional(Context{UserID: 2}); got.Kind != model.ActorUser || got.ID != 2 {
		t.Fatalf("got=%+v", got)
	}
}
