// Package issuance implements the community issuance collaborator: the
// vault holding LOAN earmarked for Stability Pool rewards, and the
// geometric-decay schedule governing how much of it has become issuable as
// of a given moment.
package issuance

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/furlabs/stabilitypool/fixedpoint"
)

// Schedule describes a geometric decay of the per-period issuance rate: a
// fixed fraction of whatever remains un-issued is released every period,
// asymptotically approaching the full pool. It is the time-based analogue
// of the liquidation-accounting feedback correction — issuance never
// exceeds the configured total, however long the system runs.
type Schedule struct {
	totalLOANSupply   *big.Int
	periodSeconds     uint64
	issuanceFactorBps uint32
}

type fileSchedule struct {
	TotalLOANSupply string `json:"totalLoanSupply" toml:"totalLoanSupply"`
	PeriodSeconds   uint64 `json:"periodSeconds" toml:"periodSeconds"`
	IssuanceBps     uint32 `json:"issuanceBps" toml:"issuanceBps"`
}

const basisPoints uint32 = 10_000

// LoadSchedule reads a decay schedule from a TOML or JSON file.
func LoadSchedule(path string) (*Schedule, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("issuance: schedule path required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("issuance: read schedule: %w", err)
	}
	var parsed fileSchedule
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&parsed); err != nil {
			return nil, fmt.Errorf("issuance: decode schedule json: %w", err)
		}
	case ".toml", ".tml":
		meta, err := toml.DecodeReader(bytes.NewReader(data), &parsed)
		if err != nil {
			return nil, fmt.Errorf("issuance: decode schedule toml: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("issuance: unknown schedule fields %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("issuance: unsupported schedule format %q", ext)
	}
	return newSchedule(parsed)
}

func newSchedule(parsed fileSchedule) (*Schedule, error) {
	total, ok := new(big.Int).SetString(strings.TrimSpace(parsed.TotalLOANSupply), 10)
	if !ok || total.Sign() < 0 {
		return nil, fmt.Errorf("issuance: totalLoanSupply invalid")
	}
	if parsed.PeriodSeconds == 0 {
		return nil, fmt.Errorf("issuance: periodSeconds must be greater than zero")
	}
	if parsed.IssuanceBps == 0 || parsed.IssuanceBps > basisPoints {
		return nil, fmt.Errorf("issuance: issuanceBps must be in (0, %d]", basisPoints)
	}
	return &Schedule{totalLOANSupply: total, periodSeconds: parsed.PeriodSeconds, issuanceFactorBps: parsed.IssuanceBps}, nil
}

// CumulativeIssuance returns the total LOAN that should have become
// issuable after elapsedSeconds have passed since deployment: the pool's
// total supply multiplied by `1 - (1 - issuanceFactor)^periods`, computed
// with the same fixed-ratio geometric-decay technique used elsewhere for
// emission schedules, just applied to the issued fraction rather than the
// remaining one.
func (s *Schedule) CumulativeIssuance(elapsedSeconds uint64) *big.Int {
	if s == nil || s.totalLOANSupply.Sign() == 0 {
		return big.NewInt(0)
	}
	periods := elapsedSeconds / s.periodSeconds
	remainingRatio := new(big.Rat).SetFrac(
		big.NewInt(int64(basisPoints-s.issuanceFactorBps)),
		big.NewInt(int64(basisPoints)),
	)
	remainingFactor := powRat(remainingRatio, periods)
	issuedFactor := new(big.Rat).Sub(new(big.Rat).SetInt64(1), remainingFactor)

	totalRat := new(big.Rat).SetInt(s.totalLOANSupply)
	issued := new(big.Rat).Mul(totalRat, issuedFactor)
	result := new(big.Int).Quo(issued.Num(), issued.Denom())
	if result.Sign() < 0 {
		return big.NewInt(0)
	}
	if result.Cmp(s.totalLOANSupply) > 0 {
		return fixedpoint.Clone(s.totalLOANSupply)
	}
	return result
}

func powRat(r *big.Rat, exp uint64) *big.Rat {
	result := new(big.Rat).SetInt64(1)
	if exp == 0 {
		return result
	}
	base := new(big.Rat).Set(r)
	for exp > 0 {
		if exp&1 == 1 {
			result.Mul(result, base)
		}
		exp >>= 1
		if exp > 0 {
			base.Mul(base, base)
		}
	}
	return result
}
