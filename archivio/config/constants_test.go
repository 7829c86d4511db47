package config

import (
	"testing"
	"time"
)

func TestHandlerTimeoutsEndBeforeWrapper(t *testing.T) {
	tests := []struct {
		name    string
		handler time.Duration
		wrapper time.Duration
	}{
		{"player command", HandlerTimeout, CommandExecutionTimeout},
		{"admin command", AdminCheckTimeout + HandlerTimeout, CommandExecutionTimeout},
		{"status command", StatusQueryTimeout, CommandExecutionTimeout},
		{"oracle command", OracleHandlerTimeout, OracleCommandTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.handler >= tt.wrapper {
				t.Errorf("handler budget %s does not end before wrapper timeout %s", tt.handler, tt.wrapper)
			}
		})
	}

	if OracleHandlerTimeout <= OracleTimeout {
		t.Errorf("oracle handler budget %s leaves no time after the answerer (%s)", OracleHandlerTimeout, OracleTimeout)
	}
}
