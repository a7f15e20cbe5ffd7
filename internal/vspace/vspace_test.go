package vspace_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/daprop/internal/da"
	"github.com/san-kum/daprop/internal/vspace"
)

var _ = Describe("NormInf", func() {
	var cfg *da.Config

	BeforeEach(func() {
		cfg = da.MustConfig(3, 3)
	})

	perturbed := func(nominal ...float64) vspace.Vector[da.DA] {
		v := vspace.Vector[da.DA](cfg.Vector(nominal...))
		for i, id := range cfg.Identity(len(nominal)) {
			v[i] = v[i].Add(id.Scale(0.1))
		}
		return v
	}

	It("is zero for an empty vector", func() {
		Expect(vspace.NormInf[da.DA](vspace.DA{}, nil)).To(BeZero())
		Expect(vspace.NormInf[float64](vspace.Float64{}, vspace.Vector[float64]{})).To(BeZero())
	})

	It("is the largest element magnitude", func() {
		v := perturbed(10, -5, 5)

		want := 0.0
		for _, x := range v {
			want = math.Max(want, x.Abs())
		}
		Expect(vspace.NormInf[da.DA](vspace.DA{}, v)).To(Equal(want))
		Expect(want).To(Equal(10.0))
	})

	It("agrees with the scalar infinity norm", func() {
		v := vspace.Vector[float64]{3, -7.5, 0.25, -0.5}
		Expect(vspace.NormInf[float64](vspace.Float64{}, v)).To(Equal(floats.Norm(v, math.Inf(1))))
	})

	It("never decreases when an element grows", func() {
		v := perturbed(1, 2, 3)
		before := vspace.NormInf[da.DA](vspace.DA{}, v)

		v[0] = v[0].Scale(100)
		Expect(vspace.NormInf[da.DA](vspace.DA{}, v)).To(BeNumerically(">=", before))

		v = append(v, cfg.Const(1e3))
		Expect(vspace.NormInf[da.DA](vspace.DA{}, v)).To(Equal(1e3))
	})

	It("leaves its input untouched", func() {
		v := perturbed(10, 5, 5)
		snapshot := v.Clone()

		first := vspace.NormInf[da.DA](vspace.DA{}, v)
		second := vspace.NormInf[da.DA](vspace.DA{}, v)

		Expect(second).To(Equal(first))
		Expect(v).To(HaveLen(len(snapshot)))
		for i := range v {
			Expect(v[i].Coeffs()).To(Equal(snapshot[i].Coeffs()))
		}
	})

	It("counts sensitivities under the max magnitude", func() {
		v := vspace.Vector[da.DA]{cfg.Const(0.5).Add(cfg.Var(2).Scale(-3))}
		Expect(vspace.NormInf[da.DA](vspace.DA{}, v)).To(Equal(3.0))
	})

	It("uses only nominal parts under the nominal magnitude", func() {
		nom := da.MustConfig(3, 3, da.WithMagnitude(da.MagnitudeNominal))
		v := vspace.Vector[da.DA]{nom.Const(0.5).Add(nom.Var(2).Scale(-3))}
		Expect(vspace.NormInf[da.DA](vspace.DA{}, v)).To(Equal(0.5))
	})

	It("propagates NaN magnitudes", func() {
		v := vspace.Vector[float64]{1, math.NaN(), 2}
		Expect(math.IsNaN(vspace.NormInf[float64](vspace.Float64{}, v))).To(BeTrue())
	})
})

var _ = Describe("Element magnitude", func() {
	DescribeTable("matches math.Abs for scalars",
		func(x float64) {
			Expect(vspace.Float64{}.Magnitude(x)).To(Equal(math.Abs(x)))
		},
		Entry("zero", 0.0),
		Entry("negative zero", math.Copysign(0, -1)),
		Entry("positive", 2.5),
		Entry("negative", -1e-12),
		Entry("large", -1e300),
		Entry("infinite", math.Inf(-1)),
	)

	It("is zero for zero DA elements", func() {
		cfg := da.MustConfig(2, 2)
		Expect(vspace.DA{}.Magnitude(cfg.Const(0))).To(BeZero())
		Expect(vspace.DA{}.Magnitude(vspace.DA{}.Zero())).To(BeZero())
	})

	It("is pure", func() {
		cfg := da.MustConfig(2, 2)
		x := cfg.Const(-2).Add(cfg.Var(1))
		Expect(vspace.DA{}.Magnitude(x)).To(Equal(vspace.DA{}.Magnitude(x)))
		Expect(vspace.DA{}.Magnitude(x)).To(BeNumerically(">=", 0))
	})
})

var _ = Describe("Vector", func() {
	It("declares itself resizeable", func() {
		Expect(vspace.IsResizeable[vspace.Vector[da.DA]]()).To(BeTrue())
		Expect(vspace.IsResizeable[vspace.Vector[float64]]()).To(BeTrue())
		Expect(vspace.IsResizeable[[]float64]()).To(BeFalse())
	})

	DescribeTable("Resize keeps the common prefix",
		func(from, to int) {
			v := make(vspace.Vector[float64], from)
			for i := range v {
				v[i] = float64(i + 1)
			}
			v.Resize(to)

			Expect(v.Len()).To(Equal(to))
			for i := 0; i < min(from, to); i++ {
				Expect(v[i]).To(Equal(float64(i + 1)))
			}
			for i := from; i < to; i++ {
				Expect(v[i]).To(BeZero())
			}
		},
		Entry("grow from empty", 0, 3),
		Entry("grow", 2, 5),
		Entry("shrink", 5, 2),
		Entry("same", 3, 3),
		Entry("to empty", 4, 0),
	)

	It("zeroes slots reused after a shrink", func() {
		v := vspace.Vector[float64]{1, 2, 3}
		v.Resize(1)
		v.Resize(3)
		Expect(v).To(Equal(vspace.Vector[float64]{1, 0, 0}))
	})

	It("resizes DA vectors with detached zeros", func() {
		cfg := da.MustConfig(2, 3)
		v := vspace.Vector[da.DA](cfg.Identity(2))
		v.Resize(3)

		Expect(v.Len()).To(Equal(3))
		Expect(v[0].Coeff(1)).To(Equal(1.0))
		Expect(v[2].Abs()).To(BeZero())
		Expect(vspace.CheckAlgebra(v)).To(Succeed())
	})

	It("reports mixed algebras", func() {
		v := vspace.Vector[da.DA]{da.MustConfig(2, 2).Const(1), da.MustConfig(4, 2).Const(1)}
		Expect(vspace.CheckAlgebra(v)).To(MatchError(da.ErrConfigMismatch))
	})
})
