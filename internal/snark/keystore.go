package snark

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/natefinch/atomic"
	"github.com/spacemeshos/sha256-simd"
	"go.uber.org/zap"

	"github.com/zkaccess/zkpass/circuit"
	"github.com/zkaccess/zkpass/shared"
)

const (
	constraintSystemExt = ".ccs"
	provingKeyExt       = ".pk"
	verifyingKeyExt     = ".vk"
	manifestExt         = ".json"
)

// Manifest describes the keys of one circuit, persisted next to them.
type Manifest struct {
	Circuit          string          `json:"circuit"`
	Curve            string          `json:"curve"`
	Constraints      int             `json:"constraints"`
	PublicVariables  int             `json:"public_variables"`
	ProvingKeySize   uint64          `json:"proving_key_size"`
	VerifyingKeyHash shared.HexBytes `json:"verifying_key_hash"`
	CreatedAt        time.Time       `json:"created_at"`
}

type circuitKeys struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

// keyStore loads and persists Groth16 keys. Loaded keys are cached for the
// lifetime of the process.
type keyStore struct {
	dir       string
	curve     ecc.ID
	curveName string
	logger    *zap.Logger

	mu      sync.Mutex
	proving map[string]*circuitKeys
	verify  map[string]groth16.VerifyingKey
}

func newKeyStore(dir, curveName string, curve ecc.ID, logger *zap.Logger) *keyStore {
	return &keyStore{
		dir:       dir,
		curve:     curve,
		curveName: curveName,
		logger:    logger,
		proving:   make(map[string]*circuitKeys),
		verify:    make(map[string]groth16.VerifyingKey),
	}
}

// fileBase maps a circuit id to the file name prefix of its keys.
func (ks *keyStore) fileBase(id string) string {
	return filepath.Join(ks.dir, ks.curveName+"_"+strings.ReplaceAll(id, "/", "_"))
}

func (ks *keyStore) compile(shape circuit.Shape) (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(ks.curve.ScalarField(), r1cs.NewBuilder, circuit.NewCircuit(shape))
	if err != nil {
		return nil, fmt.Errorf("failed to compile circuit: %w", err)
	}
	return ccs, nil
}

// setup compiles the circuit, runs the Groth16 setup and persists the keys.
// An existing manifest is returned as is.
func (ks *keyStore) setup(id string, shape circuit.Shape) (*Manifest, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if m, err := ks.readManifest(id); err == nil {
		return m, nil
	} else if !errors.Is(err, ErrKeysNotFound) {
		return nil, err
	}

	_, m, err := ks.setupLocked(id, shape)
	return m, err
}

func (ks *keyStore) setupLocked(id string, shape circuit.Shape) (*circuitKeys, *Manifest, error) {
	ks.logger.Info("running circuit setup", zap.String("circuit", id), zap.String("curve", ks.curveName))
	start := time.Now()

	ccs, err := ks.compile(shape)
	if err != nil {
		return nil, nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, fmt.Errorf("groth16 setup failed: %w", err)
	}

	var ccsBuf, pkBuf, vkBuf bytes.Buffer
	if _, err := ccs.WriteTo(&ccsBuf); err != nil {
		return nil, nil, fmt.Errorf("failed to serialize constraint system: %w", err)
	}
	if _, err := pk.WriteTo(&pkBuf); err != nil {
		return nil, nil, fmt.Errorf("failed to serialize proving key: %w", err)
	}
	if _, err := vk.WriteTo(&vkBuf); err != nil {
		return nil, nil, fmt.Errorf("failed to serialize verifying key: %w", err)
	}
	vkHash := sha256.Sum256(vkBuf.Bytes())

	m := &Manifest{
		Circuit:          id,
		Curve:            ks.curveName,
		Constraints:      ccs.GetNbConstraints(),
		PublicVariables:  ccs.GetNbPublicVariables(),
		ProvingKeySize:   uint64(pkBuf.Len()),
		VerifyingKeyHash: vkHash[:],
		CreatedAt:        time.Now().UTC(),
	}
	manifest, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}

	if err := os.MkdirAll(ks.dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create keys dir: %w", err)
	}
	required := uint64(ccsBuf.Len() + pkBuf.Len() + vkBuf.Len() + len(manifest))
	if available := shared.AvailableSpace(ks.dir); required > available {
		return nil, nil, fmt.Errorf("not enough disk space. required: %v, available: %v",
			bytefmt.ByteSize(required), bytefmt.ByteSize(available))
	}

	base := ks.fileBase(id)
	// The manifest goes last: its presence marks a complete set of keys.
	for _, f := range []struct {
		ext string
		r   io.Reader
	}{
		{constraintSystemExt, &ccsBuf},
		{provingKeyExt, &pkBuf},
		{verifyingKeyExt, &vkBuf},
		{manifestExt, bytes.NewReader(manifest)},
	} {
		if err := atomic.WriteFile(base+f.ext, f.r); err != nil {
			return nil, nil, fmt.Errorf("failed to write %s: %w", base+f.ext, err)
		}
	}

	ks.logger.Info("circuit setup completed",
		zap.String("circuit", id),
		zap.Int("constraints", m.Constraints),
		zap.String("proving_key", bytefmt.ByteSize(m.ProvingKeySize)),
		zap.Duration("duration", time.Since(start)),
	)

	keys := &circuitKeys{ccs: ccs, pk: pk, vk: vk}
	ks.proving[id] = keys
	ks.verify[id] = vk
	return keys, m, nil
}

// provingKeys returns the keys needed to prove circuit id, running the setup
// when the keys are missing and setupOnDemand is set.
func (ks *keyStore) provingKeys(id string, shape circuit.Shape, setupOnDemand bool) (*circuitKeys, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if keys, ok := ks.proving[id]; ok {
		return keys, nil
	}

	m, err := ks.readManifest(id)
	switch {
	case errors.Is(err, ErrKeysNotFound) && setupOnDemand:
		keys, _, err := ks.setupLocked(id, shape)
		return keys, err
	case err != nil:
		return nil, err
	}

	vk, err := ks.loadVerifyingKey(id, m)
	if err != nil {
		return nil, err
	}
	ccs := groth16.NewCS(ks.curve)
	if err := readKeyFile(ks.fileBase(id)+constraintSystemExt, ccs); err != nil {
		return nil, err
	}
	pk := groth16.NewProvingKey(ks.curve)
	if err := readKeyFile(ks.fileBase(id)+provingKeyExt, pk); err != nil {
		return nil, err
	}

	ks.logger.Debug("loaded proving key", zap.String("circuit", id), zap.String("size", bytefmt.ByteSize(m.ProvingKeySize)))
	keys := &circuitKeys{ccs: ccs, pk: pk, vk: vk}
	ks.proving[id] = keys
	ks.verify[id] = vk
	return keys, nil
}

// verifyingKey returns the verifying key of circuit id. It never runs a setup.
func (ks *keyStore) verifyingKey(id string) (groth16.VerifyingKey, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if vk, ok := ks.verify[id]; ok {
		return vk, nil
	}
	m, err := ks.readManifest(id)
	if err != nil {
		return nil, err
	}
	vk, err := ks.loadVerifyingKey(id, m)
	if err != nil {
		return nil, err
	}
	ks.verify[id] = vk
	return vk, nil
}

func (ks *keyStore) loadVerifyingKey(id string, m *Manifest) (groth16.VerifyingKey, error) {
	data, err := os.ReadFile(ks.fileBase(id) + verifyingKeyExt)
	if err != nil {
		return nil, fmt.Errorf("failed to read verifying key: %w", err)
	}
	if hash := sha256.Sum256(data); !bytes.Equal(hash[:], m.VerifyingKeyHash) {
		return nil, fmt.Errorf("verifying key of %s does not match its manifest", id)
	}
	vk := groth16.NewVerifyingKey(ks.curve)
	if _, err := vk.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to decode verifying key: %w", err)
	}
	return vk, nil
}

func (ks *keyStore) readManifest(id string) (*Manifest, error) {
	data, err := os.ReadFile(ks.fileBase(id) + manifestExt)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrKeysNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest of %s: %w", id, err)
	}
	if m.Circuit != id || m.Curve != ks.curveName {
		return nil, shared.ConfigMismatchError{
			Param:    "circuit",
			Expected: ks.curveName + ":" + id,
			Found:    m.Curve + ":" + m.Circuit,
			KeysDir:  ks.dir,
		}
	}
	return m, nil
}

func (ks *keyStore) list() ([]Manifest, error) {
	paths, err := filepath.Glob(filepath.Join(ks.dir, ks.curveName+"_*"+manifestExt))
	if err != nil {
		return nil, err
	}
	manifests := make([]Manifest, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest: %w", err)
		}
		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
		}
		manifests = append(manifests, m)
	}
	sort.Slice(manifests, func(i, j int) bool { return manifests[i].Circuit < manifests[j].Circuit })
	return manifests, nil
}

func readKeyFile(path string, dst io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := dst.ReadFrom(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
