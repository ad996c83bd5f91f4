// Package fs provides the filesystem seam used by the mapped writer.
//
// The writer never touches the os package directly. It goes through two small
// interfaces:
//
//   - [File]: an open file exposing its descriptor, size, truncate and close
//   - [FileSystem]: opens files
//
// # Implementations
//
//   - [LocalFS]: production implementation backed by the os package
//   - [FaultyFS]: test utility that injects open/stat/truncate/close
//     failures and counts the handles it has handed out
//
// # Usage
//
// Production code uses fs.Default:
//
//	f, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
//
// Tests inject [FaultyFS] and assert that every handle was released:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("target.dat", fs.Fault{FailOnTruncate: true})
//	// ... run the operation ...
//	require.Zero(t, ffs.OpenFiles())
//
// # Design Notes
//
// The interfaces carry no context.Context. Open, fstat, ftruncate and close
// are not interruptible at the syscall level.
package fs
