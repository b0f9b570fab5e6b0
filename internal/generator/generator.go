package generator

import "log-relay/internal/model"

type Generator interface {
	Generate() model.LogEvent
}
