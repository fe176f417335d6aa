// Package host adapts an inbound HTTP request into the environment a resolve
// runs in.
//
// A Request supplies the base URL and virtual application path used to make
// references absolute, decides which hosts count as local, exposes the
// inbound cookies for replay, and delegates local executables to an
// Executor:
//   - HandlerExecutor dispatches through an in-process http.Handler (a gin engine works)
//   - FileExecutor reads the mapped file under the physical application root
//
// Example Usage:
//
//	func assets(c *gin.Context) {
//		env, err := host.FromGin(c, host.Options{
//			AppPath:  "/app",
//			Executor: host.HandlerExecutor{Handler: engine},
//		})
//		...
//		res := resolver.Resolve(c.Request.Context(), env, c.Query("ref"), domains)
//	}
package host
