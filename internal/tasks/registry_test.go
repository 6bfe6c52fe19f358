package tasks

import (
	"reflect"
	"testing"

	"fortexx_ledger/internal/services"
)

func TestDefineTasks(t *testing.T) {
	tests := []struct {
		name    string
		webhook string
		want    []string
	}{
		{name: "no webhook registers nothing", webhook: "", want: []string{}},
		{name: "webhook registers announcements", webhook: "http://discord.invalid/hook", want: []string{"announce_payment", "payment_digest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			DefineTasks(registry, services.NewDiscordService(tt.webhook))

			if got := registry.Names(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Names() = %v; want %v", got, tt.want)
			}
			for _, name := range tt.want {
				if _, ok := registry.Get(name); !ok {
					t.Errorf("Get(%q) not found", name)
				}
			}
		})
	}
}
