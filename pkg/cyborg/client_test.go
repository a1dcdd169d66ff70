/*
 * Copyright 2023 nebuly.com.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cyborg

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/nebuly-ai/accelbind/pkg/accelerator"
	"github.com/nebuly-ai/accelbind/pkg/errdefs"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type failingTokenSource struct{}

func (failingTokenSource) Token(_ context.Context) (string, error) {
	return "", errors.New("identity service unavailable")
}

var _ = Describe("Cyborg client", func() {
	var client accelerator.Client

	BeforeEach(func() {
		fake.Reset()
		var err error
		client, err = NewClient(
			server.URL+"/accelerator/v2",
			WithTokenSource(StaticToken("secret")),
			WithMicroversion("2.0"),
			WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
		)
		Expect(err).ToNot(HaveOccurred())
	})

	Context("When creating a client", func() {
		It("should reject invalid endpoints", func() {
			for _, endpoint := range []string{"", "accelerator/v2", "ftp://host/v2", "http://"} {
				_, err := NewClient(endpoint)
				Expect(errdefs.IsInvalidArgument(err)).To(BeTrue(), endpoint)
			}
		})
	})

	Context("When listing device profiles", func() {
		It("should send the name as query parameter and decode the profiles", func() {
			fake.Respond(http.StatusOK, map[string]any{
				"device_profiles": []map[string]any{
					{
						"name": "fpga-dp",
						"uuid": "5518a925-1c2c-49a2-a8bf-0927d9456f3e",
						"groups": []map[string]string{
							{"resources:CUSTOM_ACCELERATOR_FPGA": "1", "accel:bitstream_id": "FB021995"},
						},
					},
				},
			})

			profiles, err := client.ListDeviceProfiles(ctx, "fpga-dp")
			Expect(err).ToNot(HaveOccurred())
			Expect(profiles).To(HaveLen(1))
			Expect(profiles[0].Name).To(Equal("fpga-dp"))
			Expect(profiles[0].Groups).To(Equal([]accelerator.DeviceProfileGroup{
				{"resources:CUSTOM_ACCELERATOR_FPGA": "1", "accel:bitstream_id": "FB021995"},
			}))

			requests := fake.Requests()
			Expect(requests).To(HaveLen(1))
			Expect(requests[0].Method).To(Equal(http.MethodGet))
			Expect(requests[0].Path).To(Equal("/accelerator/v2/device_profiles"))
			Expect(requests[0].Query["name"]).To(Equal([]string{"fpga-dp"}))
			Expect(requests[0].Header.Get("X-Auth-Token")).To(Equal("secret"))
			Expect(requests[0].Header.Get("OpenStack-API-Version")).To(Equal("accelerator 2.0"))
			Expect(requests[0].Header.Get("Accept")).To(Equal("application/json"))
		})

		It("should return an empty list when the body has no profiles", func() {
			fake.Respond(http.StatusOK, map[string]any{})
			profiles, err := client.ListDeviceProfiles(ctx, "fpga-dp")
			Expect(err).ToNot(HaveOccurred())
			Expect(profiles).To(BeEmpty())
		})

		It("should return a not-found error on 404", func() {
			fake.Respond(http.StatusNotFound, nil)
			_, err := client.ListDeviceProfiles(ctx, "fpga-dp")
			Expect(errdefs.IsNotFound(err)).To(BeTrue())
		})
	})

	Context("When creating ARQs", func() {
		It("should post the device profile name and decode the ARQs", func() {
			fake.Respond(http.StatusCreated, map[string]any{
				"arqs": []map[string]any{
					{"uuid": "arq-0", "state": "Initial", "device_profile_name": "fpga-dp", "device_profile_group_id": 0},
					{"uuid": "arq-1", "state": "Initial", "device_profile_name": "fpga-dp", "device_profile_group_id": 1},
				},
			})

			arqs, err := client.CreateARQs(ctx, "fpga-dp")
			Expect(err).ToNot(HaveOccurred())
			Expect(arqs).To(HaveLen(2))
			Expect(arqs[1].UUID).To(Equal("arq-1"))
			Expect(arqs[1].DeviceProfileGroupID).To(Equal(1))
			Expect(arqs[1].State).To(Equal(accelerator.ARQStateInitial))

			requests := fake.Requests()
			Expect(requests).To(HaveLen(1))
			Expect(requests[0].Method).To(Equal(http.MethodPost))
			Expect(requests[0].Path).To(Equal("/accelerator/v2/accelerator_requests"))
			Expect(requests[0].Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(requests[0].Body).To(MatchJSON(`{"device_profile_name":"fpga-dp"}`))
		})

		It("should return an upstream-unavailable error on server errors", func() {
			fake.Respond(http.StatusInternalServerError, map[string]string{"error": "boom"})
			_, err := client.CreateARQs(ctx, "fpga-dp")
			Expect(errdefs.IsUpstreamUnavailable(err)).To(BeTrue())
			Expect(errdefs.IsRetryable(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("boom"))
		})

		It("should not retry failed requests", func() {
			fake.Respond(http.StatusServiceUnavailable, nil)
			_, err := client.CreateARQs(ctx, "fpga-dp")
			Expect(err).To(HaveOccurred())
			Expect(fake.Requests()).To(HaveLen(1))
		})
	})

	Context("When binding ARQs", func() {
		It("should send the patch batch in a single request", func() {
			fake.Respond(http.StatusAccepted, nil)
			patch, err := accelerator.EncodeBindings(map[string]accelerator.Binding{
				"arq-1": {"host_name": "h1", "instance_uuid": "i1"},
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(client.BindARQs(ctx, patch)).To(Succeed())
			requests := fake.Requests()
			Expect(requests).To(HaveLen(1))
			Expect(requests[0].Method).To(Equal(http.MethodPatch))
			Expect(requests[0].Path).To(Equal("/accelerator/v2/accelerator_requests"))
			Expect(requests[0].Body).To(MatchJSON(
				`{"arq-1":[{"op":"add","path":"/host_name","value":"h1"},{"op":"add","path":"/instance_uuid","value":"i1"}]}`,
			))
		})

		It("should return a binding-submission error when the batch is rejected", func() {
			fake.Respond(http.StatusBadRequest, nil)
			err := client.BindARQs(ctx, accelerator.BindingPatch{"arq-1": {accelerator.NewAddOperation("host_name", "h1")}})
			Expect(errdefs.IsBindingSubmission(err)).To(BeTrue())
		})

		It("should return a binding-submission error when the service does not answer", func() {
			unreachable, err := NewClient("http://127.0.0.1:1/accelerator/v2")
			Expect(err).ToNot(HaveOccurred())
			err = unreachable.BindARQs(ctx, accelerator.BindingPatch{"arq-1": {accelerator.NewAddOperation("host_name", "h1")}})
			Expect(errdefs.IsBindingSubmission(err)).To(BeTrue())
		})
	})

	Context("When listing the ARQs of an instance", func() {
		It("should filter by instance", func() {
			fake.Respond(http.StatusOK, map[string]any{
				"arqs": []map[string]any{
					{"uuid": "arq-1", "state": "Bound", "device_profile_group_id": 0, "instance_uuid": "i1", "host_name": "h1"},
				},
			})
			arqs, err := client.ListARQs(ctx, "i1")
			Expect(err).ToNot(HaveOccurred())
			Expect(arqs).To(HaveLen(1))
			Expect(arqs[0].IsBindingCompleted()).To(BeTrue())
			Expect(fake.Requests()[0].Query["instance"]).To(Equal([]string{"i1"}))
		})
	})

	Context("When the token cannot be retrieved", func() {
		It("should fail without sending the request", func() {
			c, err := NewClient(server.URL, WithTokenSource(failingTokenSource{}))
			Expect(err).ToNot(HaveOccurred())
			_, err = c.ListARQs(ctx, "i1")
			Expect(errdefs.IsUpstreamUnavailable(err)).To(BeTrue())
			Expect(fake.Requests()).To(BeEmpty())
		})
	})

	Context("When the context is cancelled", func() {
		It("should fail with an upstream-unavailable error", func() {
			cancelled, cancelFn := context.WithCancel(ctx)
			cancelFn()
			_, err := client.ListDeviceProfiles(cancelled, "fpga-dp")
			Expect(errdefs.IsUpstreamUnavailable(err)).To(BeTrue())
		})
	})

	Context("When recording metrics", func() {
		It("should count requests by operation and status", func() {
			registry := prometheus.NewRegistry()
			Expect(RegisterMetrics(registry)).To(Succeed())
			Expect(RegisterMetrics(registry)).To(Succeed())

			successBefore := testutil.ToFloat64(requestsTotal.WithLabelValues(opListARQs, statusSuccess))
			notFoundBefore := testutil.ToFloat64(requestsTotal.WithLabelValues(opListARQs, string(errdefs.CodeNotFound)))

			_, err := client.ListARQs(ctx, "i1")
			Expect(err).ToNot(HaveOccurred())
			fake.Respond(http.StatusNotFound, nil)
			_, err = client.ListARQs(ctx, "i1")
			Expect(err).To(HaveOccurred())

			Expect(testutil.ToFloat64(requestsTotal.WithLabelValues(opListARQs, statusSuccess))).To(Equal(successBefore + 1))
			Expect(testutil.ToFloat64(requestsTotal.WithLabelValues(opListARQs, string(errdefs.CodeNotFound)))).To(Equal(notFoundBefore + 1))
			Expect(testutil.CollectAndCount(requestDuration)).To(BeNumerically(">", 0))
		})
	})
})
