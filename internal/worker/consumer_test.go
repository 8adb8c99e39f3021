package worker

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

func TestReceiveCount(t *testing.T) {
	key := string(types.MessageSystemAttributeNameApproximateReceiveCount)

	tests := []struct {
		name  string
		attrs map[string]string
		want  int
	}{
		{"missing attribute", nil, 1},
		{"first delivery", map[string]string{key: "1"}, 1},
		{"seventh delivery", map[string]string{key: "7"}, 7},
		{"double digits", map[string]string{key: "12"}, 12},
		{"garbage value", map[string]string{key: "abc"}, 1},
		{"zero value", map[string]string{key: "0"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReceiveCount(types.Message{Attributes: tt.attrs})
			if got != tt.want {
				t.Errorf("ReceiveCount = %d, want %d", got, tt.want)
			}
		})
	}
}
