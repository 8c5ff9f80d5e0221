// Package snark implements the verifiable computation substrate with
// Groth16 proofs over the commitment circuit.
package snark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"go.uber.org/zap"

	"github.com/zkaccess/zkpass/circuit"
	"github.com/zkaccess/zkpass/shared"
)

var (
	ErrKeysNotFound       = errors.New("circuit keys not found")
	ErrInsufficientMemory = errors.New("not enough free memory")
	ErrInvalidEvidence    = errors.New("invalid evidence")
	ErrProofRejected      = errors.New("proof rejected")
)

// Substrate proves and verifies the commitment circuit with Groth16.
type Substrate struct {
	curve         ecc.ID
	curveName     string
	minFreeMemory uint64
	setupOnDemand bool
	keys          *keyStore
	logger        *zap.Logger
}

func New(opts ...OptionFunc) (*Substrate, error) {
	options := &option{
		curve:  DefaultCurve,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if err := options.validate(); err != nil {
		return nil, err
	}

	curve, _ := ParseCurve(options.curve)
	return &Substrate{
		curve:         curve,
		curveName:     options.curve,
		minFreeMemory: options.minFreeMemory,
		setupOnDemand: options.setupOnDemand,
		keys:          newKeyStore(options.keysDir, options.curve, curve, options.logger),
		logger:        options.logger,
	}, nil
}

// Setup produces and persists the keys of program's circuit for shape.
// It is a no-op when the keys already exist.
func (s *Substrate) Setup(ctx context.Context, program string, shape circuit.Shape) (*Manifest, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer withGnarkLogger(s.logger)()
	return s.keys.setup(shape.ID(program), shape)
}

// List returns the manifests of all circuits in the keys directory for the configured curve.
func (s *Substrate) List() ([]Manifest, error) {
	return s.keys.list()
}

func (s *Substrate) Prove(ctx context.Context, program string, in shared.Input) ([]byte, shared.Journal, error) {
	shape, err := circuit.ShapeOf(in)
	if err != nil {
		return nil, shared.Journal{}, err
	}
	if err := checkMemory(ctx, s.minFreeMemory); err != nil {
		return nil, shared.Journal{}, err
	}
	defer withGnarkLogger(s.logger)()

	id := shape.ID(program)
	keys, err := s.keys.provingKeys(id, shape, s.setupOnDemand)
	if err != nil {
		return nil, shared.Journal{}, err
	}
	assignment, err := circuit.Assign(in)
	if err != nil {
		return nil, shared.Journal{}, err
	}
	w, err := frontend.NewWitness(assignment, s.curve.ScalarField())
	if err != nil {
		return nil, shared.Journal{}, fmt.Errorf("failed to build witness: %w", err)
	}

	// groth16.Prove cannot be interrupted; this is the last cancellation point.
	if err := ctx.Err(); err != nil {
		return nil, shared.Journal{}, err
	}
	start := time.Now()
	proof, err := groth16.Prove(keys.ccs, keys.pk, w)
	if err != nil {
		return nil, shared.Journal{}, fmt.Errorf("groth16 prove failed: %w", err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, shared.Journal{}, fmt.Errorf("failed to serialize proof: %w", err)
	}
	journal := circuit.Commit(in)
	ev := &evidence{
		Circuit: id,
		Curve:   s.curveName,
		Proof:   buf.Bytes(),
		Public:  circuit.PublicInputs(journal),
	}
	data, err := ev.marshal()
	if err != nil {
		return nil, shared.Journal{}, fmt.Errorf("failed to encode evidence: %w", err)
	}

	s.logger.Info("proof generated",
		zap.String("circuit", id),
		zap.Int("evidence_size", len(data)),
		zap.Duration("duration", time.Since(start)),
	)
	return data, journal, nil
}

// Verify checks data and returns the Journal given by the proof's public inputs.
func (s *Substrate) Verify(ctx context.Context, program string, data []byte) (shared.Journal, error) {
	if err := ctx.Err(); err != nil {
		return shared.Journal{}, err
	}
	ev, err := unmarshalEvidence(data)
	if err != nil {
		return shared.Journal{}, err
	}
	if ev.Curve != s.curveName {
		return shared.Journal{}, fmt.Errorf("%w: curve %q, expected %q", ErrInvalidEvidence, ev.Curve, s.curveName)
	}
	shape, err := circuit.ParseID(program, ev.Circuit)
	if err != nil {
		return shared.Journal{}, fmt.Errorf("%w: %v", ErrInvalidEvidence, err)
	}
	journal, err := circuit.JournalFromPublicInputs(ev.Public, shape)
	if err != nil {
		return shared.Journal{}, fmt.Errorf("%w: %v", ErrInvalidEvidence, err)
	}

	vk, err := s.keys.verifyingKey(ev.Circuit)
	if err != nil {
		return shared.Journal{}, err
	}

	defer withGnarkLogger(s.logger)()

	proof := groth16.NewProof(s.curve)
	n, err := proof.ReadFrom(bytes.NewReader(ev.Proof))
	if err != nil {
		return shared.Journal{}, fmt.Errorf("%w: failed to decode proof: %v", ErrInvalidEvidence, err)
	}
	if n != int64(len(ev.Proof)) {
		return shared.Journal{}, fmt.Errorf("%w: %d trailing proof bytes", ErrInvalidEvidence, int64(len(ev.Proof))-n)
	}

	public, err := frontend.NewWitness(circuit.PublicAssignment(journal, shape), s.curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return shared.Journal{}, fmt.Errorf("failed to build public witness: %w", err)
	}
	if err := groth16.Verify(proof, vk, public); err != nil {
		return shared.Journal{}, fmt.Errorf("%w: %v", ErrProofRejected, err)
	}

	s.logger.Debug("proof verified", zap.String("circuit", ev.Circuit))
	return journal, nil
}
