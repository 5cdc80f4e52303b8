// Copyright 2025 Grad ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations.
//
// A Tensor[T, B] carries its element type T (float32, float64, int32,
// int64 or uint8) and compute backend B in its type, so dtype and
// device mismatches are compile errors rather than runtime surprises.
// Element-wise arithmetic follows NumPy broadcasting rules, and
// buffers are reference-counted with copy-on-write sharing, so clones
// and views cost nothing until someone writes.
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	z := x.Add(y)
//	w := x.MatMul(y.Transpose())
//
// Broadcasting stretches size-1 dimensions on demand:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)
//	c := a.Add(b) // shape (3, 4)
//
// Beyond arithmetic, tensors expose scalar forms (AddScalar,
// MulScalar, ...), pointwise math (Exp, Log, Sqrt), and reductions:
//
//	s := x.Sum()             // total
//	m := x.MeanDim(0, false) // mean along a dimension
//	i := x.Argmax(-1)        // index of the row maximum
//
// See the method documentation on Tensor for the full operation set.
package tensor
