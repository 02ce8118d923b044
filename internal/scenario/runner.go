package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sc4plugins/custom-budget-departments/internal/algorithm"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/engine"
	"github.com/sc4plugins/custom-budget-departments/internal/hostsim"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
)

// Options configures a replay.
type Options struct {
	Logger *slog.Logger
	// Segment receives save steps and serves load steps. An in-memory
	// segment is used when nil.
	Segment service.DBSegment
	// OnMonth is called after every month tick.
	OnMonth func()
	// Encoding applies when the scenario names none.
	Encoding algorithm.FactorEncoding
}

// Result is the city state after a replay.
type Result struct {
	City    *hostsim.City
	Manager *engine.Manager
	Segment service.DBSegment
	Months  int
	Saves   int
}

// NewCity builds the host city described by c.
func NewCity(c City) *hostsim.City {
	city := hostsim.NewCity()
	city.Residential.Value = c.Population
	city.Demand[model.DemandResidentialLowWealth] = float32(c.Tiers.Low)
	city.Demand[model.DemandResidentialMediumWealth] = float32(c.Tiers.Medium)
	city.Demand[model.DemandResidentialHighWealth] = float32(c.Tiers.High)
	city.Current.X, city.Current.Z = c.X, c.Z
	city.Current.Total = int64(c.Population)

	for _, rc := range c.Region {
		established := rc.Established == nil || *rc.Established
		city.Regions.Cities = append(city.Regions.Cities, &hostsim.RegionalCity{
			X:             rc.X,
			Z:             rc.Z,
			Total:         rc.Population,
			IsEstablished: established,
			Tiers: map[uint32]int64{
				model.DemandResidentialLowWealth:    rc.Tiers.Low,
				model.DemandResidentialMediumWealth: rc.Tiers.Medium,
				model.DemandResidentialHighWealth:   rc.Tiers.High,
			},
		})
	}
	return city
}

// Run replays the scenario's steps through a fresh engine.
func Run(ctx context.Context, s *Scenario, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = common.LoggerFrom(ctx)
	}

	encoding := opts.Encoding
	if s.Encoding != "" {
		var err error
		if encoding, err = algorithm.ParseFactorEncoding(s.Encoding); err != nil {
			return nil, err
		}
	}

	buildings, err := s.Compile(encoding)
	if err != nil {
		return nil, err
	}

	segment := opts.Segment
	if segment == nil {
		segment = hostsim.NewSegment()
	}

	manager := engine.NewManager(algorithm.NewFactory(encoding), logger)
	director := engine.NewDirector(manager, logger)
	server := hostsim.NewMessageServer()
	if err := director.Start(server); err != nil {
		return nil, fmt.Errorf("failed to start director: %w", err)
	}
	defer director.Stop(server)

	result := &Result{
		City:    NewCity(s.City),
		Manager: manager,
		Segment: segment,
	}
	server.Send(service.Message{Type: engine.MessagePostCityInit, Data: result.City})

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		action, err := step.Action()
		if err != nil {
			return result, fmt.Errorf("step %d: %w", i+1, err)
		}

		switch action {
		case ActionInsert:
			for n := 0; n < step.Times(); n++ {
				server.Send(service.Message{Type: engine.MessageInsertOccupant, Data: buildings[step.Insert]})
			}
		case ActionRemove:
			for n := 0; n < step.Times(); n++ {
				server.Send(service.Message{Type: engine.MessageRemoveOccupant, Data: buildings[step.Remove]})
			}
		case ActionPopulation:
			result.City.Residential.Value = *step.Population
			result.City.Current.Total = int64(*step.Population)
		case ActionMonth:
			for n := 0; n < step.Month; n++ {
				if err := ctx.Err(); err != nil {
					return result, err
				}
				server.Send(service.Message{Type: engine.MessageSimNewMonth})
				result.Months++
				if opts.OnMonth != nil {
					opts.OnMonth()
				}
			}
		case ActionSave:
			server.Send(service.Message{Type: engine.MessageSave, Data: segment})
			result.Saves++
		case ActionLoad:
			server.Send(service.Message{Type: engine.MessageLoad, Data: segment})
		}

		logger.Debug("Replayed step", "step", i+1, "action", string(action))
	}

	return result, nil
}
