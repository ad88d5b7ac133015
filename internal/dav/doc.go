// Package dav is a small WebDAV/CalDAV client covering the operations the
// davman UI needs: principal and home-set discovery, collection listing,
// collection create/update/delete, and object upload.
//
// Every operation takes a context and returns its failure as an error value;
// HTTP-level failures are reported as *OperationError. Operations are traced
// with OpenTelemetry spans named dav.<op>.
package dav
