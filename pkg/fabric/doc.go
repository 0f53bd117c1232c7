// Package fabric provides reusable routing models for the placer.
//
// Each type implements [par.Fabric] and some of its optional extensions:
//
//   - [Hops] accepts an edge when a path of at most Max physical edges joins
//     the mated ports. It also implements [par.Locality] with unweighted hop
//     distance.
//   - [Matrix] models GreenPAK-style general routing matrices. Any output can
//     reach any input of the same matrix, and signals crossing between
//     matrices share a fixed number of cross connections per direction. It
//     implements [par.Congester] and [par.Locality].
//
// [Greenpak] builds reference device graphs for the SLG46140V, SLG46620V and
// SLG46621V. The resource counts are approximations suitable for tests and
// examples, not a bitstream-accurate model.
//
// All fabrics are stateless and safe for concurrent use.
package fabric
