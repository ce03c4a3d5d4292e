package store

import (
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/gomlx/go-textdelta/deltas"
	"github.com/gomlx/go-textdelta/internal/files"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// FingerprintKey is the key of the parquet file metadata holding the fingerprint of the
// configuration that produced the delta table.
const FingerprintKey = "textdelta.fingerprint"

// DefaultDirCreationPerm is used when creating the directory of a delta table file.
var DefaultDirCreationPerm = os.FileMode(0755)

// WriteParquet writes the delta table to path, with the fingerprint stored in the file metadata.
//
// The table is first written to path+".tmp" and then atomically moved to path, so readers never
// see a partially written file. The lock file path+".lock" serializes concurrent writers of the
// same path. It is left in place.
func WriteParquet(path string, table deltas.Table, fingerprint string) error {
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for file %q", path)
	}
	lockPath := path + ".lock"
	var mainErr error
	errLock := execOnFileLock(lockPath, func() {
		mainErr = writeParquet(path, table, fingerprint)
	})
	if mainErr != nil {
		return mainErr
	}
	if errLock != nil {
		return errors.WithMessagef(errLock, "while locking %q to write %q", lockPath, path)
	}
	klog.V(1).Infof("wrote %d delta rows to %q", len(table), path)
	return nil
}

func writeParquet(path string, table deltas.Table, fingerprint string) (err error) {
	tmpPath := path + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return errors.Wrapf(err, "creating temporary file %q", tmpPath)
	}
	var tmpFileClosed bool
	defer func() {
		// If we exit with an error, make sure to close and remove the unfinished temporary file.
		if err == nil {
			return
		}
		if !tmpFileClosed {
			if closeErr := tmpFile.Close(); closeErr != nil {
				klog.Errorf("failed closing temporary file %q: %v", tmpPath, closeErr)
			}
		}
		if removeErr := os.Remove(tmpPath); removeErr != nil && files.Exists(tmpPath) {
			klog.Errorf("failed removing temporary file %q: %v", tmpPath, removeErr)
		}
	}()

	writer := parquet.NewGenericWriter[record](tmpFile, parquet.KeyValueMetadata(FingerprintKey, fingerprint))
	if _, err = writer.Write(toRecords(table)); err != nil {
		return errors.Wrapf(err, "writing delta rows to %q", tmpPath)
	}
	if err = writer.Close(); err != nil {
		return errors.Wrapf(err, "finishing parquet file %q", tmpPath)
	}
	tmpFileClosed = true
	if err = tmpFile.Close(); err != nil {
		return errors.Wrapf(err, "failed to close temporary file %q", tmpPath)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, "failed to move %q to %q", tmpPath, path)
	}
	return nil
}

// ReadParquet reads a delta table written by WriteParquet, and the fingerprint stored with it
// (empty if the file has none).
func ReadParquet(path string) (table deltas.Table, fingerprint string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", errors.Wrapf(err, "opening delta table %q", path)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return nil, "", errors.Wrapf(err, "reading delta table %q", path)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, "", errors.Wrapf(err, "reading delta table %q", path)
	}
	fingerprint, _ = pf.Lookup(FingerprintKey)

	reader := parquet.NewGenericReader[record](f)
	defer func() { _ = reader.Close() }()
	records := make([]record, reader.NumRows())
	for n := 0; n < len(records); {
		m, err := reader.Read(records[n:])
		n += m
		if err != nil {
			if errors.Is(err, io.EOF) {
				records = records[:n]
				break
			}
			return nil, "", errors.Wrapf(err, "reading rows of delta table %q", path)
		}
	}
	klog.V(1).Infof("read %d delta rows from %q", len(records), path)
	return fromRecords(records), fingerprint, nil
}

// execOnFileLock opens the lockPath file (or creates it if it doesn't yet exist), locks it, and executes fn.
// If lockPath is already locked, it polls with a 100 to 200 milliseconds period (randomly) until
// it acquires the lock.
//
// The lock file is never removed: a writer still polling holds a handle on it, and a new writer
// would otherwise create and lock a different file, with both writing path at the same time.
func execOnFileLock(lockPath string, fn func()) (err error) {
	fileLock := flock.New(lockPath)
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return errors.Wrapf(err, "while trying to lock %q", lockPath)
		}
		if locked {
			break
		}
		time.Sleep(time.Millisecond * time.Duration(100+rand.IntN(100)))
	}

	// Unlock even if fn panics.
	defer func() {
		unlockErr := fileLock.Unlock()
		if unlockErr != nil {
			if err == nil {
				err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
			} else {
				klog.Errorf("error unlocking file %q: %v", lockPath, unlockErr)
			}
		}
	}()
	fn()
	return
}
