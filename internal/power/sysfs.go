package power

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// SysfsProvider finds regulators exposed to userspace through the
// reg-virt-consumer and reg-userspace-consumer drivers. Each supply is a
// directory under Root named after the supply:
//
//	<Root>/vddio/min_microvolts   (virtual consumer, optional)
//	<Root>/vddio/max_microvolts   (virtual consumer, optional)
//	<Root>/vddio/state            (userspace consumer, optional)
//
// A supply without the microvolt attributes has a fixed output; one without
// state is always on.
type SysfsProvider struct {
	Root string
}

// Get returns the regulator for name.
func (p SysfsProvider) Get(name string) (Regulator, error) {
	dir := filepath.Join(p.Root, name)
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", dir)
	}
	return &sysfsRegulator{dir: dir}, nil
}

type sysfsRegulator struct {
	dir string
}

func (r *sysfsRegulator) path(attr string) string {
	return filepath.Join(r.dir, attr)
}

func (r *sysfsRegulator) has(attr string) bool {
	_, err := os.Stat(r.path(attr))
	return err == nil
}

func (r *sysfsRegulator) write(attr, value string) error {
	return writeAttr(r.path(attr), value)
}

func (r *sysfsRegulator) CountVoltages() int {
	if r.has("min_microvolts") && r.has("max_microvolts") {
		return 1
	}
	return 0
}

// SetVoltage writes the lower bound first; the consumer driver applies the
// request on each write.
func (r *sysfsRegulator) SetVoltage(minUV, maxUV uint32) error {
	if err := r.write("min_microvolts", strconv.FormatUint(uint64(minUV), 10)); err != nil {
		return err
	}
	return r.write("max_microvolts", strconv.FormatUint(uint64(maxUV), 10))
}

func (r *sysfsRegulator) Enable() error {
	return r.setState("enabled")
}

func (r *sysfsRegulator) Disable() error {
	return r.setState("disabled")
}

func (r *sysfsRegulator) setState(s string) error {
	err := r.write("state", s)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// writeAttr writes an existing sysfs attribute. Unlike os.WriteFile it never
// creates the file.
func writeAttr(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(value); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
