// Package runtime provides the sandboxed execution environment for
// containerized packet-I/O helper processes.
//
// It is based on libcontainer, allowing the runtime to run helper processes
// inside an isolated, lightweight rootless container.
package runtime
