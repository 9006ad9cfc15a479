package sim_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/meteorsim/internal/dynamo"
	"github.com/san-kum/meteorsim/internal/integrators"
	"github.com/san-kum/meteorsim/internal/physics"
	"github.com/san-kum/meteorsim/internal/sim"
)

const frame = 0.016

type recorder struct {
	snaps  []*sim.Snapshot
	resets int
}

func (r *recorder) OnStep(s *sim.Snapshot) { r.snaps = append(r.snaps, s) }
func (r *recorder) Reset()                 { r.resets++ }

type impactCounter struct{ n int }

func (c *impactCounter) Name() string              { return "impacts" }
func (c *impactCounter) Value() float64            { return float64(c.n) }
func (c *impactCounter) Reset()                    { c.n = 0 }
func (c *impactCounter) OnStep(snap *sim.Snapshot) { c.n += len(snap.Impacts) }

type nanIntegrator struct{}

func (nanIntegrator) Name() string { return "nan" }
func (nanIntegrator) Step(k dynamo.Kinematics, _ []dynamo.Force, _ float64) dynamo.Kinematics {
	k.Position.X = math.NaN()
	return k
}

func above(altitude float64) dynamo.Vec3 {
	return dynamo.Vec3{Y: physics.EarthRadius + altitude}
}

var _ = Describe("Simulation", func() {
	var s *sim.Simulation

	BeforeEach(func() {
		s = sim.New()
	})

	Describe("Spawn", func() {
		It("derives mass from size", func() {
			h, err := s.Spawn(sim.BodySpec{Position: above(10), Size: 0.2})
			Expect(err).NotTo(HaveOccurred())

			b, ok := s.Body(h)
			Expect(ok).To(BeTrue())
			Expect(b.Mass).To(BeNumerically("~", physics.MassFromSize(0.2), 1))
			Expect(b.Size).To(Equal(0.2))
			Expect(s.Len()).To(Equal(1))
			Expect(s.Stats().Spawned).To(Equal(1))
		})

		It("hands out increasing handles", func() {
			a, _ := s.Spawn(sim.BodySpec{Position: above(10), Size: 0.1})
			b, _ := s.Spawn(sim.BodySpec{Position: above(20), Size: 0.1})
			Expect(b).To(BeNumerically(">", a))
		})

		DescribeTable("rejects invalid bodies",
			func(spec sim.BodySpec) {
				_, err := s.Spawn(spec)
				Expect(err).To(MatchError(dynamo.ErrInvalidBody))
				Expect(s.Len()).To(BeZero())
			},
			Entry("zero size", sim.BodySpec{Position: above(10), Size: 0}),
			Entry("negative size", sim.BodySpec{Position: above(10), Size: -1}),
			Entry("NaN size", sim.BodySpec{Position: above(10), Size: math.NaN()}),
			Entry("NaN position", sim.BodySpec{Position: dynamo.Vec3{X: math.NaN()}, Size: 0.1}),
			Entry("infinite velocity", sim.BodySpec{Position: above(10), Velocity: dynamo.Vec3{Z: math.Inf(1)}, Size: 0.1}),
			Entry("overflowing mass", sim.BodySpec{Position: above(10), Size: 1e200}),
		)
	})

	Describe("Step", func() {
		It("rejects a non-positive or non-finite dt", func() {
			for _, dt := range []float64{0, -frame, math.NaN(), math.Inf(1)} {
				_, err := s.Step(dt, 1, false)
				Expect(err).To(MatchError(dynamo.ErrInvalidStep))
			}
			Expect(s.Time()).To(BeZero())
		})

		It("does nothing while paused", func() {
			rec := &recorder{}
			s.AddObserver(rec)
			h, _ := s.Spawn(sim.BodySpec{Position: above(10), Size: 0.1})
			before, _ := s.Body(h)

			events, err := s.Step(frame, 1, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(BeEmpty())

			after, _ := s.Body(h)
			Expect(after).To(Equal(before))
			Expect(s.Time()).To(BeZero())
			Expect(rec.snaps).To(BeEmpty())
		})

		It("clamps the time scale", func() {
			_, err := s.Step(frame, 1000, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Time()).To(BeNumerically("~", frame*sim.MaxTimeScale, 1e-12))

			_, err = s.Step(frame, 0.001, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Time()).To(BeNumerically("~", frame*(sim.MaxTimeScale+sim.MinTimeScale), 1e-12))
		})

		It("pulls a resting body toward the primary", func() {
			h, _ := s.Spawn(sim.BodySpec{Position: above(600), Size: 0.1})
			_, err := s.Step(frame, 1, false)
			Expect(err).NotTo(HaveOccurred())

			b, _ := s.Body(h)
			Expect(b.Velocity.Y).To(BeNumerically("<", 0))
			Expect(b.Position.Y).To(BeNumerically("<", physics.EarthRadius+600))
			Expect(b.Burning).To(BeFalse())
		})

		It("marks fast bodies in the envelope as burning", func() {
			h, _ := s.Spawn(sim.BodySpec{
				Position: above(1),
				Velocity: dynamo.Vec3{X: physics.ToUnits(5000)},
				Size:     0.01,
			})
			_, err := s.Step(frame, 1, false)
			Expect(err).NotTo(HaveOccurred())

			b, _ := s.Body(h)
			Expect(b.Burning).To(BeTrue())
			Expect(b.BurnIntensity).To(BeNumerically(">", 0))
			Expect(b.BurnIntensity).To(BeNumerically("<=", 1))
		})

		It("never lets drag reverse a body", func() {
			v0 := dynamo.Vec3{X: physics.ToUnits(1000)}
			h, _ := s.Spawn(sim.BodySpec{Position: above(0.01), Velocity: v0, Size: 1e-6})
			_, err := s.Step(frame, sim.MaxTimeScale, false)
			Expect(err).NotTo(HaveOccurred())

			b, ok := s.Body(h)
			Expect(ok).To(BeTrue())
			Expect(b.Velocity.Dot(v0)).To(BeNumerically(">=", -1e-12))
			Expect(b.Speed).To(BeNumerically("<", 1e-6))
		})

		It("keeps the previous state when the update is not finite", func() {
			s = sim.New(sim.WithIntegrator(nanIntegrator{}))
			h, _ := s.Spawn(sim.BodySpec{Position: above(10), Size: 0.1})
			before, _ := s.Body(h)

			events, err := s.Step(frame, 1, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(BeEmpty())

			after, _ := s.Body(h)
			Expect(after).To(Equal(before))
			Expect(s.Stats().Rejected).To(Equal(1))
		})

		It("notifies observers and metrics", func() {
			rec := &recorder{}
			counter := &impactCounter{}
			s = sim.New(sim.WithObserver(rec), sim.WithMetric(counter))
			_, _ = s.Spawn(sim.BodySpec{Position: dynamo.Vec3{Y: 10}, Size: 0.1})

			_, err := s.Step(frame, 1, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.snaps).To(HaveLen(1))
			Expect(rec.snaps[0].Step).To(Equal(1))
			Expect(rec.snaps[0].Impacts).To(HaveLen(1))
			Expect(counter.Value()).To(Equal(1.0))
		})
	})

	Describe("impact detection", func() {
		It("impacts a body just inside the surface in one step", func() {
			const size = 0.2
			h, _ := s.Spawn(sim.BodySpec{Position: above(size - 1e-3), Size: size})

			events, err := s.Step(frame, 1, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].BodyID).To(Equal(h))
			Expect(events[0].Energy).To(BeNumerically(">", 0))
			Expect(events[0].TNTMegatons).To(BeNumerically("~", events[0].Energy/physics.JoulesPerMegatonTNT, 1e-30))

			_, ok := s.Body(h)
			Expect(ok).To(BeFalse())
			Expect(s.Len()).To(BeZero())
			Expect(s.Stats().Impacts).To(Equal(1))
			Expect(s.Stats().LastImpact).To(Equal(events[0]))
		})

		It("emits one event per body and then forgets it", func() {
			_, _ = s.Spawn(sim.BodySpec{Position: dynamo.Vec3{Y: 25}, Velocity: dynamo.Vec3{Y: -5}, Size: 0.2})

			events, err := s.Step(frame, 1, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))

			events, err = s.Step(frame, 1, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(BeEmpty())
			Expect(s.Stats().Impacts).To(Equal(1))
		})

		It("brings an inbound body down within a bounded number of steps", func() {
			const size = 0.2
			start := physics.EarthRadius + 25
			_, _ = s.Spawn(sim.BodySpec{
				Position: dynamo.Vec3{Y: start},
				Velocity: dynamo.Vec3{Y: -5},
				Size:     size,
			})
			_, _ = s.Spawn(sim.BodySpec{Position: above(1000), Size: size})
			Expect(s.Len()).To(Equal(2))

			var events []sim.ImpactEvent
			for i := 0; i < 2000 && len(events) == 0; i++ {
				ev, err := s.Step(frame, 1, false)
				Expect(err).NotTo(HaveOccurred())
				events = append(events, ev...)
			}

			Expect(events).To(HaveLen(1))
			Expect(events[0].Position.Norm()).To(BeNumerically("<", physics.EarthRadius+size))
			Expect(events[0].Energy).To(BeNumerically(">", 0))
			Expect(s.Len()).To(Equal(1))
		})
	})

	Describe("vacuum orbit", func() {
		DescribeTable("conserves specific orbital energy",
			func(integ dynamo.Integrator, tol float64) {
				s = sim.New(sim.WithAtmosphere(nil), sim.WithIntegrator(integ))
				const r = 100.0
				v := physics.CircularSpeed(physics.EarthMass, r)
				h, err := s.Spawn(sim.BodySpec{
					Position: dynamo.Vec3{X: r},
					Velocity: dynamo.Vec3{Y: v},
					Size:     0.01,
				})
				Expect(err).NotTo(HaveOccurred())

				b, _ := s.Body(h)
				e0 := s.Gravity().SpecificEnergy(b.Position, b.Velocity)

				for i := 0; i < 2000; i++ {
					events, err := s.Step(5, 1, false)
					Expect(err).NotTo(HaveOccurred())
					Expect(events).To(BeEmpty())
				}

				b, ok := s.Body(h)
				Expect(ok).To(BeTrue())
				e1 := s.Gravity().SpecificEnergy(b.Position, b.Velocity)
				Expect(math.Abs((e1 - e0) / e0)).To(BeNumerically("<", tol))
			},
			Entry("euler", integrators.NewEuler(), 1e-2),
			Entry("verlet", integrators.NewVerlet(), 1e-3),
			Entry("rk4", integrators.NewRK4(), 1e-6),
		)
	})

	Describe("Remove", func() {
		It("removes a body once", func() {
			h, _ := s.Spawn(sim.BodySpec{Position: above(10), Size: 0.1})
			Expect(s.Remove(h)).To(Succeed())
			Expect(s.Remove(h)).To(MatchError(dynamo.ErrUnknownBody))
			Expect(s.Len()).To(BeZero())
			Expect(s.Stats().Removed).To(Equal(1))
		})

		It("rejects handles that were never spawned", func() {
			Expect(s.Remove(42)).To(MatchError(dynamo.ErrUnknownBody))
			Expect(s.Stats().Removed).To(BeZero())
		})
	})

	Describe("Status", func() {
		It("follows each body from active to impacted or removed", func() {
			falling, _ := s.Spawn(sim.BodySpec{Position: dynamo.Vec3{Y: 10}, Size: 0.1})
			pulled, _ := s.Spawn(sim.BodySpec{Position: above(100), Size: 0.1})
			staying, _ := s.Spawn(sim.BodySpec{Position: above(200), Size: 0.1})

			for _, h := range []sim.BodyHandle{falling, pulled, staying} {
				Expect(s.Status(h)).To(Equal(sim.Active))
			}

			_, err := s.Step(frame, 1, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Remove(pulled)).To(Succeed())

			Expect(s.Status(falling)).To(Equal(sim.Impacted))
			Expect(s.Status(pulled)).To(Equal(sim.Removed))
			Expect(s.Status(staying)).To(Equal(sim.Active))
		})

		It("does not know handles outside the current run", func() {
			h, _ := s.Spawn(sim.BodySpec{Position: above(10), Size: 0.1})
			Expect(s.Remove(h)).To(Succeed())

			_, err := s.Status(0)
			Expect(err).To(MatchError(dynamo.ErrUnknownBody))
			_, err = s.Status(h + 1)
			Expect(err).To(MatchError(dynamo.ErrUnknownBody))

			s.RemoveAll()
			_, err = s.Status(h)
			Expect(err).To(MatchError(dynamo.ErrUnknownBody))
		})
	})

	Describe("RemoveAll", func() {
		It("clears bodies and accumulated statistics", func() {
			rec := &recorder{}
			counter := &impactCounter{}
			s.AddObserver(rec)
			s.AddMetric(counter)

			_, _ = s.Spawn(sim.BodySpec{Position: dynamo.Vec3{Y: 10}, Size: 0.1})
			_, _ = s.Spawn(sim.BodySpec{Position: above(100), Size: 0.1})
			_, err := s.Step(frame, 1, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Stats().Impacts).To(Equal(1))

			s.RemoveAll()
			Expect(s.Len()).To(BeZero())
			Expect(s.Stats()).To(Equal(sim.Stats{}))
			Expect(s.Time()).To(BeZero())
			Expect(counter.Value()).To(BeZero())
			Expect(rec.resets).To(Equal(1))

			h, _ := s.Spawn(sim.BodySpec{Position: above(10), Size: 0.1})
			Expect(h).To(Equal(sim.BodyHandle(1)))
		})
	})

	Describe("AtmosphereAt", func() {
		It("reports conditions at a distance from the center", func() {
			c := s.AtmosphereAt(physics.EarthRadius + 0.5)
			Expect(c.Altitude).To(BeNumerically("~", 50000, 1e-6))
			Expect(c).To(Equal(physics.StandardAtmosphere().At(c.Altitude)))
			Expect(c.Wind).To(BeNumerically(">", 0))
		})

		It("uses sea level values inside the primary", func() {
			c := s.AtmosphereAt(25)
			Expect(c.Density).To(Equal(physics.SeaLevelDensity))
			Expect(c.Pressure).To(Equal(physics.SeaLevelPressure))
			Expect(c.Temperature).To(Equal(physics.StandardTemperature))
		})

		It("is empty above the envelope and in a vacuum", func() {
			Expect(s.AtmosphereAt(physics.EarthRadius + 10).Density).To(BeZero())

			s = sim.New(sim.WithAtmosphere(nil))
			c := s.AtmosphereAt(physics.EarthRadius + 0.5)
			Expect(c.Density).To(BeZero())
			Expect(c.Pressure).To(BeZero())
		})
	})
})
