// Package emlapp is the Composition Root for emlapp.
//
// emlapp unpacks self-extracting web-app packages: files that are a shell or
// Python script and a MIME message at the same time. The message parts (HTML,
// CSS, JavaScript, SVG, a Dockerfile, metadata.json) are written to a
// directory and can then be served, opened in a browser or run in a container.
//
// The domain lives in pkg/core and knows nothing about storage. The default
// filesystem sink in pkg/adapters/fs writes parts atomically and keeps the
// last manifest in a hidden .emlapp directory beside them.
//
// Usage:
//
//	svc, err := emlapp.New("./out", emlapp.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//
//	m, err := svc.Extract(ctx, "dashboard.sh", core.ExtractOptions{RewriteCIDs: true})
//	fmt.Println(m.EntryPoint())
package emlapp
