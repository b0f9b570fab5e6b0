package random

import (
	"fmt"
	"maps"
	"math/rand"
	"sync"
	"time"

	"log-relay/internal/level"
	"log-relay/internal/model"
)

const defaultService = "app"

type ServiceConfig struct {
	Messages     map[level.Severity][]string `yaml:"messages"`
	StaticFields map[string]any              `yaml:"static_fields"`
}

type GeneratorConfig struct {
	Weights        map[level.Severity]int   `yaml:"weights"`
	Services       []string                 `yaml:"services"`
	ServiceConfig  map[string]ServiceConfig `yaml:"service_profiles"`
	GlobalMetadata map[string]any           `yaml:"global_metadata"`
	// Seed makes the generated sequence reproducible. Zero seeds from the clock.
	Seed int64 `yaml:"seed"`
}

type RandomGenerator struct {
	mu             sync.Mutex
	rnd            *rand.Rand
	weights        map[level.Severity]int
	services       []string
	serviceConfig  map[string]ServiceConfig
	globalMetadata map[string]any
}

func NewRandomGenerator(cfg GeneratorConfig) *RandomGenerator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	services := cfg.Services
	if len(services) == 0 {
		services = []string{defaultService}
	}

	return &RandomGenerator{
		rnd:            rand.New(rand.NewSource(seed)),
		weights:        cfg.Weights,
		services:       services,
		serviceConfig:  cfg.ServiceConfig,
		globalMetadata: cfg.GlobalMetadata,
	}
}

func (rg *RandomGenerator) SetWeights(weights map[level.Severity]int) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	rg.weights = weights
}

func (rg *RandomGenerator) Weights() map[level.Severity]int {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	return maps.Clone(rg.weights)
}

func (rg *RandomGenerator) calculateTotalWeight() int {
	sum := 0

	for _, weight := range rg.weights {
		if weight > 0 {
			sum += weight
		}
	}

	return sum
}

// pickLevel walks levels in a fixed order so a seeded generator is
// reproducible.
func (rg *RandomGenerator) pickLevel() level.Severity {
	weightsSum := rg.calculateTotalWeight()
	if weightsSum == 0 {
		return level.INFO
	}

	randomPick := rg.rnd.Intn(weightsSum)

	currentSum := 0
	for _, l := range level.All {
		weight := rg.weights[l]
		if weight <= 0 {
			continue
		}
		currentSum += weight
		if randomPick < currentSum {
			return l
		}
	}

	return level.INFO
}

func (rg *RandomGenerator) pickMessage(service string, l level.Severity) string {
	if config, ok := rg.serviceConfig[service]; ok {
		if messages, ok := config.Messages[l]; ok && len(messages) > 0 {
			return messages[rg.rnd.Intn(len(messages))]
		}
	}

	return fmt.Sprintf("Default %s message for %s", l, service)
}

func (rg *RandomGenerator) pickPayload(service string) map[string]any {
	payload := make(map[string]any)

	maps.Copy(payload, rg.globalMetadata)

	if profile, ok := rg.serviceConfig[service]; ok {
		maps.Copy(payload, profile.StaticFields)
	}

	return payload
}

func (rg *RandomGenerator) Generate() model.LogEvent {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	l := rg.pickLevel()
	service := rg.services[rg.rnd.Intn(len(rg.services))]
	message := rg.pickMessage(service, l)
	traceID := fmt.Sprintf("%x-%x-%x-%x", rg.rnd.Uint32(), rg.rnd.Uint32(), rg.rnd.Uint32(), rg.rnd.Uint32())
	payload := rg.pickPayload(service)

	return model.LogEvent{
		Level:   l,
		Service: service,
		TraceID: traceID,
		Message: message,
		Payload: payload,
	}
}
